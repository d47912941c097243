package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	llmModels "github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	llmSvc "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

type stubChat struct {
	sendErr  error
	lastSend *llmSvc.SendMessageRequest
	lastEdit *llmSvc.EditMessageRequest
}

func (s *stubChat) SendMessage(_ context.Context, req *llmSvc.SendMessageRequest) (*llmSvc.TurnResult, error) {
	s.lastSend = req
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &llmSvc.TurnResult{
		ConversationID:      "conv-1",
		ConversationCreated: req.ConversationID == nil,
		Message:             &llmModels.Message{ID: "m-2", Role: llmModels.RoleAssistant, Content: "Hello"},
		Remaining:           49,
	}, nil
}

func (s *stubChat) RegenerateMessage(context.Context, *llmSvc.RegenerateMessageRequest) (*llmSvc.TurnResult, error) {
	return &llmSvc.TurnResult{ConversationID: "conv-1"}, nil
}

func (s *stubChat) EditMessage(_ context.Context, req *llmSvc.EditMessageRequest) (*llmSvc.TurnResult, error) {
	s.lastEdit = req
	return &llmSvc.TurnResult{ConversationID: req.ConversationID}, nil
}

type stubConversations struct {
	lastUpdate *llmSvc.UpdateConversationRequest
	lastList   llmModels.ListConversationsParams
}

func (s *stubConversations) CreateConversation(_ context.Context, req *llmSvc.CreateConversationRequest) (*llmModels.Conversation, error) {
	return &llmModels.Conversation{ID: "conv-new", UserID: req.UserID}, nil
}

func (s *stubConversations) GetConversation(_ context.Context, id, _ string) (*llmModels.Conversation, error) {
	if id == "missing" {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return &llmModels.Conversation{ID: id}, nil
}

func (s *stubConversations) ListConversations(_ context.Context, p llmModels.ListConversationsParams) (*llmSvc.ConversationPage, error) {
	s.lastList = p
	return &llmSvc.ConversationPage{Conversations: []llmModels.Conversation{}}, nil
}

func (s *stubConversations) UpdateConversation(_ context.Context, id, _ string, req *llmSvc.UpdateConversationRequest) (*llmModels.Conversation, error) {
	s.lastUpdate = req
	return &llmModels.Conversation{ID: id}, nil
}

func (s *stubConversations) DeleteConversation(context.Context, string, string) error { return nil }

type stubCatalog struct{}

func (stubCatalog) ListAvailable(context.Context) ([]services.ModelInfo, error) {
	return []services.ModelInfo{{ModelConfig: models.ModelConfig{ModelID: "google/gemini-2.5-flash"}}}, nil
}

func (stubCatalog) Resolve(context.Context, ...string) (string, error) { return "", nil }

type stubUsers struct{}

func (stubUsers) EnsureUser(context.Context, string, string) error { return nil }
func (stubUsers) GetProfile(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}
func (stubUsers) UpdateProfile(_ context.Context, id string, _ *services.UpdateProfileRequest) (*models.User, error) {
	return &models.User{ID: id}, nil
}
func (stubUsers) GetUsage(context.Context, string) (*services.UsageStatus, error) {
	return nil, errors.New("connection refused")
}

type stubAdmin struct {
	upserted *models.ModelConfig
}

func (s *stubAdmin) Overview(context.Context) (*models.AnalyticsOverview, error) {
	return &models.AnalyticsOverview{TotalUsers: 3}, nil
}
func (s *stubAdmin) DailyUsage(context.Context, int) ([]models.DailyUsage, error) { return nil, nil }
func (s *stubAdmin) ModelUsage(context.Context, int) ([]models.ModelUsage, error) { return nil, nil }
func (s *stubAdmin) ListUsers(context.Context, repositories.ListUsersParams) (*services.UserPage, error) {
	return &services.UserPage{}, nil
}
func (s *stubAdmin) UpdateUser(_ context.Context, id string, _ *services.AdminUpdateUserRequest) (*models.User, error) {
	return &models.User{ID: id}, nil
}
func (s *stubAdmin) ResetUserUsage(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}
func (s *stubAdmin) ListModels(context.Context) ([]models.ModelConfig, error) { return nil, nil }
func (s *stubAdmin) UpsertModel(_ context.Context, cfg *models.ModelConfig) (*models.ModelConfig, error) {
	s.upserted = cfg
	return cfg, nil
}

type harness struct {
	router        http.Handler
	chat          *stubChat
	conversations *stubConversations
	admin         *stubAdmin
}

// fakeAuth trusts the X-Test-Role header so tests can act as user or admin.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &models.Claims{Email: "u@example.com", Role: r.Header.Get("X-Test-Role")}
		claims.Subject = "user-1"
		next.ServeHTTP(w, httputil.WithClaims(r, claims))
	})
}

func newHarness(pingErr error) *harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{chat: &stubChat{}, conversations: &stubConversations{}, admin: &stubAdmin{}}
	h.router = NewRouter(Handlers{
		Health: NewHealthHandler(map[string]Pinger{
			"postgres": PingFunc(func(context.Context) error { return pingErr }),
		}, logger),
		Chat:         NewChatHandler(h.chat, logger),
		Conversation: NewConversationHandler(h.conversations, logger),
		Models:       NewModelsHandler(stubCatalog{}, logger),
		User:         NewUserHandler(stubUsers{}, logger),
		Admin:        NewAdminHandler(h.admin, logger),
	}, fakeAuth, logger)
	return h
}

func (h *harness) do(method, path, body, role string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestSendMessage(t *testing.T) {
	h := newHarness(nil)

	rec, body := h.do(http.MethodPost, "/api/chat", `{"message":"Hi"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "conv-1", body["conversation_id"])
	assert.EqualValues(t, 49, body["remaining"])
	assert.Equal(t, "user-1", h.chat.lastSend.UserID)

	rec, _ = h.do(http.MethodPost, "/api/chat", `{"message":"Hi","conversation_id":"conv-1"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendMessage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		body       string
		wantStatus int
		wantKind   string
		check      func(t *testing.T, body map[string]any)
	}{
		{
			name:       "quota exceeded",
			err:        &domain.QuotaExceededError{Plan: "FREE", Used: 50, Limit: 50},
			wantStatus: http.StatusTooManyRequests,
			wantKind:   domain.KindQuotaExceeded,
			check: func(t *testing.T, body map[string]any) {
				assert.EqualValues(t, 50, body["used"])
				assert.EqualValues(t, 50, body["limit"])
			},
		},
		{
			name:       "inference failed",
			err:        &domain.InferenceError{Model: "m", Err: errors.New("upstream 503 secret-key")},
			wantStatus: http.StatusBadGateway,
			wantKind:   domain.KindInferenceFailed,
			check: func(t *testing.T, body map[string]any) {
				assert.NotContains(t, body["detail"], "secret-key")
			},
		},
		{
			name:       "busy",
			err:        &domain.ConflictError{Message: "conversation is busy", ResourceType: "conversation"},
			wantStatus: http.StatusConflict,
			wantKind:   domain.KindConflict,
		},
		{
			name:       "invalid json",
			body:       `{"message":`,
			wantStatus: http.StatusBadRequest,
			wantKind:   domain.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(nil)
			h.chat.sendErr = tt.err
			body := tt.body
			if body == "" {
				body = `{"message":"Hi"}`
			}

			rec, decoded := h.do(http.MethodPost, "/api/chat", body, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantKind, decoded["kind"])
			if tt.check != nil {
				tt.check(t, decoded)
			}
		})
	}
}

func TestEditMessage_PathParams(t *testing.T) {
	h := newHarness(nil)

	rec, _ := h.do(http.MethodPatch, "/api/conversations/conv-9/messages/msg-3", `{"content":"fixed"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conv-9", h.chat.lastEdit.ConversationID)
	assert.Equal(t, "msg-3", h.chat.lastEdit.MessageID)
	assert.Equal(t, "fixed", h.chat.lastEdit.Content)
}

func TestConversationRoutes(t *testing.T) {
	h := newHarness(nil)

	rec, _ := h.do(http.MethodGet, "/api/conversations?page=2&limit=5&archived=true", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, h.conversations.lastList.Page)
	assert.Equal(t, 5, h.conversations.lastList.Limit)
	assert.True(t, h.conversations.lastList.Archived)
	assert.Equal(t, "user-1", h.conversations.lastList.UserID)

	rec, _ = h.do(http.MethodPatch, "/api/conversations/conv-1", `{"title":null,"is_pinned":true}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.conversations.lastUpdate.Title.Present)
	assert.Nil(t, h.conversations.lastUpdate.Title.Value)
	assert.True(t, *h.conversations.lastUpdate.IsPinned)

	rec, body := h.do(http.MethodGet, "/api/conversations/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.KindNotFound, body["kind"])

	rec, _ = h.do(http.MethodDelete, "/api/conversations/conv-1", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestInternalErrorsAreMasked(t *testing.T) {
	h := newHarness(nil)

	rec, body := h.do(http.MethodGet, "/api/user/usage", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.KindInternal, body["kind"])
	assert.Equal(t, "internal server error", body["detail"])
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(nil)

	rec, body := h.do(http.MethodGet, "/api/admin/analytics/overview", "", "user")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.KindForbidden, body["kind"])

	rec, body = h.do(http.MethodGet, "/api/admin/analytics/overview", "", models.RoleAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["total_users"])

	rec, _ = h.do(http.MethodPut, "/api/admin/models/openai/gpt-4o",
		`{"display_name":"GPT-4o","provider":"openai","is_enabled":true}`, models.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "openai/gpt-4o", h.admin.upserted.ModelID)
	assert.Equal(t, "GPT-4o", h.admin.upserted.DisplayName)
}

func TestModelsAndHealth(t *testing.T) {
	h := newHarness(nil)

	rec, body := h.do(http.MethodGet, "/api/models", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["models"], 1)

	rec, body = h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	h = newHarness(errors.New("dial tcp: refused"))
	rec, body = h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}
