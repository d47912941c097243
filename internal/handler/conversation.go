package handler

import (
	"log/slog"
	"net/http"

	llmModels "github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	llmSvc "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

// ConversationHandler handles conversation HTTP requests
type ConversationHandler struct {
	conversationService llmSvc.ConversationService
	logger              *slog.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversationService llmSvc.ConversationService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		logger:              logger,
	}
}

// updateConversationRequest is the PATCH body. Title distinguishes absent
// from null.
type updateConversationRequest struct {
	Title      httputil.OptionalString `json:"title"`
	Model      *string                 `json:"model"`
	IsPinned   *bool                   `json:"is_pinned"`
	IsArchived *bool                   `json:"is_archived"`
}

// ListConversations returns a page of the caller's conversations
// GET /api/conversations?page=1&limit=20&archived=false
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	params := llmModels.ListConversationsParams{
		UserID:   httputil.GetUserID(r),
		Archived: r.URL.Query().Get("archived") == "true",
		Page:     httputil.QueryInt(r, "page", 1),
		Limit:    httputil.QueryInt(r, "limit", 0),
	}

	page, err := h.conversationService.ListConversations(r.Context(), params)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

// CreateConversation creates an empty conversation
// POST /api/conversations
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req llmSvc.CreateConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondInvalid(w, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	conv, err := h.conversationService.CreateConversation(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// GetConversation returns a conversation with its messages
// GET /api/conversations/{id}
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}

	conv, err := h.conversationService.GetConversation(r.Context(), conversationID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// UpdateConversation applies a partial update
// PATCH /api/conversations/{id}
func (h *ConversationHandler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}

	var body updateConversationRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		respondInvalid(w, "Invalid request body")
		return
	}

	req := &llmSvc.UpdateConversationRequest{
		Title:      body.Title.Domain(),
		Model:      body.Model,
		IsPinned:   body.IsPinned,
		IsArchived: body.IsArchived,
	}

	conv, err := h.conversationService.UpdateConversation(r.Context(), conversationID, httputil.GetUserID(r), req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// DeleteConversation removes a conversation and its messages
// DELETE /api/conversations/{id}
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}

	if err := h.conversationService.DeleteConversation(r.Context(), conversationID, httputil.GetUserID(r)); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
