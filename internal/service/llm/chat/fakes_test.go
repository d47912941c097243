package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	llmModels "github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	llmSvc "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

// store is an in-memory stand-in for the postgres repositories.
type store struct {
	mu            sync.Mutex
	users         map[string]*models.User
	conversations map[string]*llmModels.Conversation
	messages      map[string]*llmModels.Message
	usageLogs     []models.UsageLog
	clock         time.Time

	// failSuccessLog makes usageRepo reject success rows, failing the turn
	// transaction after inference
	failSuccessLog bool
}

func newStore() *store {
	return &store{
		users:         make(map[string]*models.User),
		conversations: make(map[string]*llmModels.Conversation),
		messages:      make(map[string]*llmModels.Message),
		clock:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *store) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *store) user(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *store) history(conversationID string) []llmModels.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked(conversationID)
}

func (s *store) historyLocked(conversationID string) []llmModels.Message {
	var out []llmModels.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *store) logs() []models.UsageLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.UsageLog(nil), s.usageLogs...)
}

func (s *store) conversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// seedConversation stores a conversation and messages with alternating roles
// starting with USER.
func (s *store) seedConversation(userID string, contents ...string) (*llmModels.Conversation, []llmModels.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	conv := &llmModels.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Model:     "google/gemini-2.5-flash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv

	for i, c := range contents {
		role := llmModels.RoleUser
		if i%2 == 1 {
			role = llmModels.RoleAssistant
		}
		m := &llmModels.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			Role:           role,
			Content:        c,
			CreatedAt:      s.tick(),
		}
		s.messages[m.ID] = m
	}
	cp := *conv
	return &cp, s.historyLocked(conv.ID)
}

type conversationRepo struct{ *store }

func (r conversationRepo) Create(_ context.Context, conv *llmModels.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv.ID = uuid.NewString()
	now := r.tick()
	conv.CreatedAt, conv.UpdatedAt = now, now
	cp := *conv
	r.conversations[conv.ID] = &cp
	return nil
}

func (r conversationRepo) GetByID(_ context.Context, id string) (*llmModels.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r conversationRepo) List(context.Context, llmModels.ListConversationsParams) ([]llmModels.Conversation, int, error) {
	return nil, 0, nil
}

func (r conversationRepo) Update(_ context.Context, conv *llmModels.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *conv
	r.conversations[conv.ID] = &cp
	return nil
}

func (r conversationRepo) Touch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[id].UpdatedAt = r.tick()
	return nil
}

func (r conversationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, id)
	return nil
}

type messageRepo struct{ *store }

func (r messageRepo) Create(_ context.Context, msg *llmModels.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = uuid.NewString()
	msg.CreatedAt = r.tick()
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r messageRepo) GetByID(_ context.Context, id string) (*llmModels.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (r messageRepo) ListByConversation(_ context.Context, conversationID string) ([]llmModels.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.historyLocked(conversationID), nil
}

func (r messageRepo) UpdateContent(_ context.Context, id, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Content = content
	m.IsEdited = true
	return nil
}

func (r messageRepo) DeleteAfter(_ context.Context, conversationID string, after time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.messages {
		if m.ConversationID == conversationID && m.CreatedAt.After(after) {
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

type userRepo struct{ *store }

func (r userRepo) EnsureUser(_ context.Context, id, email string, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		r.users[id] = &models.User{ID: id, Email: email, Plan: models.PlanFree, MessagesLimit: limit}
	}
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) UpdateProfile(context.Context, *models.User) error { return nil }
func (r userRepo) UpdateAccount(context.Context, *models.User) error { return nil }

func (r userRepo) ReserveMessage(_ context.Context, id string) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, false, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if u.Plan != models.PlanUnlimited && u.MessagesUsed >= u.MessagesLimit {
		return 0, false, nil
	}
	u.MessagesUsed++
	now := r.clock
	u.LastActiveAt = &now
	return u.MessagesUsed, true, nil
}

func (r userRepo) RefundMessage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.users[id]; u.MessagesUsed > 0 {
		u.MessagesUsed--
	}
	return nil
}

func (r userRepo) ResetUsage(context.Context, string) error        { return nil }
func (r userRepo) ResetDailyUsage(context.Context) (int64, error) { return 0, nil }
func (r userRepo) List(context.Context, repositories.ListUsersParams) ([]models.UserListItem, int, error) {
	return nil, 0, nil
}

type usageRepo struct{ *store }

func (r usageRepo) Create(_ context.Context, log *models.UsageLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.Success && r.failSuccessLog {
		return errors.New("usage_logs: connection reset")
	}
	log.ID = uuid.NewString()
	log.CreatedAt = r.clock
	r.usageLogs = append(r.usageLogs, *log)
	return nil
}

type txManager struct{}

func (txManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// staticCatalog enables a fixed set of models.
type staticCatalog struct {
	enabled      map[string]bool
	defaultModel string
	err          error
}

func (c staticCatalog) Resolve(_ context.Context, candidates ...string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	for _, m := range candidates {
		if m != "" && c.enabled[m] {
			return m, nil
		}
	}
	return c.defaultModel, nil
}

var _ services.ModelCatalog = staticCatalog{}

func (c staticCatalog) ListAvailable(context.Context) ([]services.ModelInfo, error) {
	out := make([]services.ModelInfo, 0, len(c.enabled))
	for id, on := range c.enabled {
		if on {
			out = append(out, services.ModelInfo{ModelConfig: models.ModelConfig{ModelID: id, IsEnabled: true}})
		}
	}
	return out, nil
}

// scriptedProvider records requests and replies from a script.
type scriptedProvider struct {
	mu       sync.Mutex
	requests []llmSvc.InferenceRequest
	reply    func(ctx context.Context, req *llmSvc.InferenceRequest) (*llmSvc.InferenceResponse, error)
}

func replyWith(content string) *scriptedProvider {
	return &scriptedProvider{
		reply: func(context.Context, *llmSvc.InferenceRequest) (*llmSvc.InferenceResponse, error) {
			return &llmSvc.InferenceResponse{Content: content, FinishReason: "stop"}, nil
		},
	}
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Send(ctx context.Context, req *llmSvc.InferenceRequest) (*llmSvc.InferenceResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, *req)
	p.mu.Unlock()
	return p.reply(ctx, req)
}

func (p *scriptedProvider) last() llmSvc.InferenceRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
