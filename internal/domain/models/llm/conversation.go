package llm

import (
	"time"
)

// Conversation owns an ordered sequence of messages.
type Conversation struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Model      string    `json:"model" db:"model"` // default model for new messages
	Title      *string   `json:"title,omitempty" db:"title"`
	IsPinned   bool      `json:"is_pinned" db:"is_pinned"`
	IsArchived bool      `json:"is_archived" db:"is_archived"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	// Computed fields (not stored in DB)
	Messages     []Message `json:"messages,omitempty"`
	MessageCount *int      `json:"message_count,omitempty"`
}

// ListConversationsParams selects a page of a user's conversations.
type ListConversationsParams struct {
	UserID   string
	Archived bool
	Page     int // 1-based
	Limit    int
}

// Offset returns the row offset for the page.
func (p ListConversationsParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
