package services

import (
	"context"

	"github.com/sterling9879/Sage-IA/internal/domain/models/llm"
)

// ResourceAuthorizer checks if a user can access resources.
// Ownership mismatches surface as domain.ErrNotFound so callers cannot probe
// for other users' conversations.
type ResourceAuthorizer interface {
	// AuthorizeConversation loads the conversation and asserts userID owns it
	AuthorizeConversation(ctx context.Context, userID, conversationID string) (*llm.Conversation, error)
}
