package llm

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
	RoleSystem    Role = "SYSTEM"
)

// Message is one entry in a conversation. Only USER and ASSISTANT messages
// take part in prompt construction.
type Message struct {
	ID               string    `json:"id" db:"id"`
	ConversationID   string    `json:"conversation_id" db:"conversation_id"`
	Role             Role      `json:"role" db:"role"`
	Content          string    `json:"content" db:"content"`
	Model            *string   `json:"model,omitempty" db:"model"`                         // assistant only
	PromptTokens     *int      `json:"prompt_tokens,omitempty" db:"prompt_tokens"`         // assistant only
	CompletionTokens *int      `json:"completion_tokens,omitempty" db:"completion_tokens"` // assistant only
	IsEdited         bool      `json:"is_edited" db:"is_edited"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// InPrompt reports whether the message participates in prompt construction.
func (m *Message) InPrompt() bool {
	return m.Role == RoleUser || m.Role == RoleAssistant
}
