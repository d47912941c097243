package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	llmRepo "github.com/sterling9879/Sage-IA/internal/domain/repositories/llm"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a conversation only if they created it.
type OwnerBasedAuthorizer struct {
	convRepo llmRepo.ConversationRepository
}

var _ services.ResourceAuthorizer = (*OwnerBasedAuthorizer)(nil)

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(convRepo llmRepo.ConversationRepository) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{convRepo: convRepo}
}

// AuthorizeConversation fetches by id, then asserts ownership. Someone else's
// conversation reads as not found.
func (a *OwnerBasedAuthorizer) AuthorizeConversation(ctx context.Context, userID, conversationID string) (*llm.Conversation, error) {
	conv, err := a.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get conversation for auth: %w", err)
	}

	if conv.UserID != userID {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}
	return conv, nil
}
