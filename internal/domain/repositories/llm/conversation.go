package llm

import (
	"context"

	"github.com/sterling9879/Sage-IA/internal/domain/models/llm"
)

// ConversationRepository defines the interface for conversation data access
type ConversationRepository interface {
	// Create inserts the conversation and fills CreatedAt/UpdatedAt
	Create(ctx context.Context, conv *llm.Conversation) error

	// GetByID looks a conversation up without owner scoping. Callers must
	// check ownership themselves.
	// Returns domain.ErrNotFound if not found
	GetByID(ctx context.Context, id string) (*llm.Conversation, error)

	// List returns a page of the user's conversations, pinned first then most
	// recently updated, plus the total count.
	List(ctx context.Context, params llm.ListConversationsParams) ([]llm.Conversation, int, error)

	// Update writes title, model, is_pinned and is_archived
	Update(ctx context.Context, conv *llm.Conversation) error

	// Touch advances updated_at to now
	Touch(ctx context.Context, id string) error

	// Delete removes the conversation; messages cascade
	Delete(ctx context.Context, id string) error
}
