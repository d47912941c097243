package handler

import (
	"log/slog"
	"net/http"

	llmSvc "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

// ChatHandler handles chat turn HTTP requests
type ChatHandler struct {
	chatService llmSvc.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService llmSvc.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// SendMessage runs one chat turn
// POST /api/chat
// Returns 201 when a conversation was created, 200 otherwise
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req llmSvc.SendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondInvalid(w, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)

	result, err := h.chatService.SendMessage(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.ConversationCreated {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, result)
}

// RegenerateMessage replaces an assistant reply
// POST /api/conversations/{id}/messages/{messageID}/regenerate
func (h *ChatHandler) RegenerateMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}
	messageID, ok := PathParam(w, r, "messageID", "Message ID")
	if !ok {
		return
	}

	var req llmSvc.RegenerateMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondInvalid(w, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.ConversationID = conversationID
	req.MessageID = messageID

	result, err := h.chatService.RegenerateMessage(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// EditMessage rewrites a user message and answers it again
// PATCH /api/conversations/{id}/messages/{messageID}
func (h *ChatHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}
	messageID, ok := PathParam(w, r, "messageID", "Message ID")
	if !ok {
		return
	}

	var req llmSvc.EditMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondInvalid(w, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.ConversationID = conversationID
	req.MessageID = messageID

	result, err := h.chatService.EditMessage(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
