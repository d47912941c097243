package llm

import (
	"context"

	"github.com/sterling9879/Sage-IA/internal/domain/models/llm"
)

// ChatService runs chat turns: admission, prompt construction, inference and
// usage accounting.
type ChatService interface {
	// SendMessage appends a user message to a new or existing conversation
	// and returns the assistant reply.
	SendMessage(ctx context.Context, req *SendMessageRequest) (*TurnResult, error)

	// RegenerateMessage replaces an assistant message (and everything after
	// it) with a fresh reply to the preceding user message.
	RegenerateMessage(ctx context.Context, req *RegenerateMessageRequest) (*TurnResult, error)

	// EditMessage rewrites a user message, drops every later message and
	// answers the edited message.
	EditMessage(ctx context.Context, req *EditMessageRequest) (*TurnResult, error)
}

// SendMessageRequest is the DTO for a chat turn
type SendMessageRequest struct {
	UserID         string  `json:"-"` // Set by handler from auth context
	ConversationID *string `json:"conversation_id,omitempty"`
	Message        string  `json:"message"`
	Model          *string `json:"model,omitempty"`
}

// RegenerateMessageRequest is the DTO for regenerating an assistant reply
type RegenerateMessageRequest struct {
	UserID         string  `json:"-"`
	ConversationID string  `json:"-"`
	MessageID      string  `json:"-"`
	Model          *string `json:"model,omitempty"`
}

// EditMessageRequest is the DTO for editing a user message
type EditMessageRequest struct {
	UserID         string  `json:"-"`
	ConversationID string  `json:"-"`
	MessageID      string  `json:"-"`
	Content        string  `json:"content"`
	Model          *string `json:"model,omitempty"`
}

// TurnResult is returned for every successful turn
type TurnResult struct {
	ConversationID      string       `json:"conversation_id"`
	ConversationCreated bool         `json:"conversation_created"`
	Message             *llm.Message `json:"message"`
	Remaining           int          `json:"remaining"` // -1 when the plan has no cap
}
