package llm

import (
	"context"
	"time"

	"github.com/sterling9879/Sage-IA/internal/domain/models/llm"
)

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	// Create appends a message. CreatedAt is assigned by the store and is
	// strictly greater than every existing message in the conversation.
	Create(ctx context.Context, msg *llm.Message) error

	// GetByID returns domain.ErrNotFound if not found
	GetByID(ctx context.Context, id string) (*llm.Message, error)

	// ListByConversation returns messages in chronological order
	ListByConversation(ctx context.Context, conversationID string) ([]llm.Message, error)

	// UpdateContent replaces the content and sets is_edited
	UpdateContent(ctx context.Context, id, content string) error

	// DeleteAfter removes every message created strictly after the given
	// instant and returns how many were removed.
	DeleteAfter(ctx context.Context, conversationID string, after time.Time) (int64, error)
}
