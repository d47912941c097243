package llm

import (
	"context"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/models/llm"
)

// ConversationService manages a user's conversations outside of chat turns.
type ConversationService interface {
	CreateConversation(ctx context.Context, req *CreateConversationRequest) (*llm.Conversation, error)

	// GetConversation returns the conversation with its messages
	GetConversation(ctx context.Context, conversationID, userID string) (*llm.Conversation, error)

	ListConversations(ctx context.Context, params llm.ListConversationsParams) (*ConversationPage, error)

	UpdateConversation(ctx context.Context, conversationID, userID string, req *UpdateConversationRequest) (*llm.Conversation, error)

	// DeleteConversation removes the conversation and its messages
	DeleteConversation(ctx context.Context, conversationID, userID string) error
}

// CreateConversationRequest is the DTO for creating an empty conversation
type CreateConversationRequest struct {
	UserID string  `json:"-"`
	Title  *string `json:"title,omitempty"`
	Model  *string `json:"model,omitempty"`
}

// UpdateConversationRequest supports partial updates; nil fields are left alone.
type UpdateConversationRequest struct {
	Title      models.OptionalString // no json tag - mapped from handler DTO
	Model      *string
	IsPinned   *bool
	IsArchived *bool
}

// Pagination describes a page of a list result
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes page counts for a result of total rows
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// ConversationPage is one page of conversations
type ConversationPage struct {
	Conversations []llm.Conversation `json:"conversations"`
	Pagination    Pagination         `json:"pagination"`
}
