package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sterling9879/Sage-IA/internal/config"
	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	llmModels "github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	llmRepo "github.com/sterling9879/Sage-IA/internal/domain/repositories/llm"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	llmSvc "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
	"github.com/sterling9879/Sage-IA/internal/metrics"
	"github.com/sterling9879/Sage-IA/internal/service/llm/prompt"
	"github.com/sterling9879/Sage-IA/internal/service/quota"
	"github.com/sterling9879/Sage-IA/internal/service/usage"
)

const (
	turnSend       = "send"
	turnRegenerate = "regenerate"
	turnEdit       = "edit"
)

// Settings are the tunables of a chat turn.
type Settings struct {
	SystemPrompt     string
	HistoryBudget    int // tokens; <= 0 uses the builder default
	InferenceTimeout time.Duration
	LockTTL          time.Duration
}

// Deps groups the collaborators of the chat service.
type Deps struct {
	Conversations llmRepo.ConversationRepository
	Messages      llmRepo.MessageRepository
	Users         repositories.UserRepository
	UsageLogs     repositories.UsageLogRepository
	TxManager     repositories.TransactionManager
	Authorizer    services.ResourceAuthorizer
	Catalog       services.ModelCatalog
	Provider      llmSvc.Provider
	Locker        llmSvc.Locker
	Builder       *prompt.Builder
	Tokens        prompt.TokenCounter
	Costs         *usage.CostEstimator
	Guard         *quota.Guard
}

// Service implements the ChatService interface.
// It owns the turn pipeline: admission, prompt construction, inference and
// usage accounting.
type Service struct {
	Deps
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new chat service
func NewService(deps Deps, settings Settings, logger *slog.Logger) *Service {
	if settings.InferenceTimeout <= 0 {
		settings.InferenceTimeout = 60 * time.Second
	}
	if settings.LockTTL <= 0 {
		settings.LockTTL = settings.InferenceTimeout + 30*time.Second
	}
	return &Service{
		Deps:     deps,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

var _ llmSvc.ChatService = (*Service)(nil)

// turn is the resolved state handed to the inference step.
type turn struct {
	kind    string
	user    *models.User
	conv    *llmModels.Conversation
	model   string
	history []llmModels.Message // chronological, ends with userMsg
	userMsg *llmModels.Message
	quota   *reservation

	// truncateAfter, when set, deletes every message created after it in the
	// success transaction
	truncateAfter *time.Time
}

// SendMessage appends a user message and returns the assistant reply.
func (s *Service) SendMessage(ctx context.Context, req *llmSvc.SendMessageRequest) (*llmSvc.TurnResult, error) {
	if err := validateContent(req.Message); err != nil {
		return nil, err
	}

	user, res, err := s.admit(ctx, req.UserID)
	if err != nil {
		metrics.RecordTurn(turnSend, "rejected")
		return nil, err
	}
	defer s.settle(ctx, res)

	var conv *llmModels.Conversation
	if id := deref(req.ConversationID); id != "" {
		if conv, err = s.Authorizer.AuthorizeConversation(ctx, user.ID, id); err != nil {
			return nil, err
		}
		release, err := s.Locker.Acquire(ctx, lockKey(conv.ID), s.settings.LockTTL)
		if err != nil {
			return nil, err
		}
		defer s.release(ctx, release, conv.ID)
	}

	candidates := []string{deref(req.Model)}
	if conv != nil {
		candidates = append(candidates, conv.Model)
	}
	model, err := s.Catalog.Resolve(ctx, append(candidates, deref(user.DefaultModel))...)
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}

	// a new conversation only exists together with its first message
	created := conv == nil
	userMsg := &llmModels.Message{
		Role:    llmModels.RoleUser,
		Content: req.Message,
	}
	err = s.TxManager.ExecTx(ctx, func(ctx context.Context) error {
		if created {
			conv = newConversation(user.ID, model, req.Message)
			if err := s.Conversations.Create(ctx, conv); err != nil {
				return fmt.Errorf("create conversation: %w", err)
			}
		}
		userMsg.ConversationID = conv.ID
		if err := s.Messages.Create(ctx, userMsg); err != nil {
			return fmt.Errorf("save user message: %w", err)
		}
		if err := s.Conversations.Touch(ctx, conv.ID); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("conversation created",
			"id", conv.ID,
			"user_id", user.ID,
			"model", model,
		)
		release, err := s.Locker.Acquire(ctx, lockKey(conv.ID), s.settings.LockTTL)
		if err != nil {
			return nil, err
		}
		defer s.release(ctx, release, conv.ID)
	}

	history, err := s.Messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	result, err := s.runTurn(ctx, &turn{
		kind:    turnSend,
		user:    user,
		conv:    conv,
		model:   model,
		history: history,
		userMsg: userMsg,
		quota:   res,
	})
	if err != nil {
		return nil, err
	}
	result.ConversationCreated = created
	return result, nil
}

// RegenerateMessage discards an assistant reply (and anything after it) and
// answers the preceding user message again.
func (s *Service) RegenerateMessage(ctx context.Context, req *llmSvc.RegenerateMessageRequest) (*llmSvc.TurnResult, error) {
	user, res, err := s.admit(ctx, req.UserID)
	if err != nil {
		metrics.RecordTurn(turnRegenerate, "rejected")
		return nil, err
	}
	defer s.settle(ctx, res)

	conv, err := s.Authorizer.AuthorizeConversation(ctx, req.UserID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	release, err := s.Locker.Acquire(ctx, lockKey(conv.ID), s.settings.LockTTL)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, release, conv.ID)

	history, err := s.Messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	idx := indexOf(history, req.MessageID)
	if idx < 0 {
		return nil, fmt.Errorf("message %s: %w", req.MessageID, domain.ErrNotFound)
	}
	if history[idx].Role != llmModels.RoleAssistant {
		return nil, fmt.Errorf("%w: only assistant messages can be regenerated", domain.ErrValidation)
	}

	userIdx := -1
	for i := idx - 1; i >= 0; i-- {
		if history[i].Role == llmModels.RoleUser {
			userIdx = i
			break
		}
	}
	if userIdx < 0 {
		return nil, fmt.Errorf("%w: no user message precedes message %s", domain.ErrValidation, req.MessageID)
	}

	model, err := s.Catalog.Resolve(ctx, deref(req.Model), conv.Model, deref(user.DefaultModel))
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}

	userMsg := history[userIdx]
	return s.runTurn(ctx, &turn{
		kind:          turnRegenerate,
		user:          user,
		conv:          conv,
		model:         model,
		history:       history[:userIdx+1],
		userMsg:       &userMsg,
		truncateAfter: &userMsg.CreatedAt,
		quota:         res,
	})
}

// EditMessage rewrites a user message, drops everything after it and
// answers the new content. The edit is kept even when inference fails.
func (s *Service) EditMessage(ctx context.Context, req *llmSvc.EditMessageRequest) (*llmSvc.TurnResult, error) {
	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	user, res, err := s.admit(ctx, req.UserID)
	if err != nil {
		metrics.RecordTurn(turnEdit, "rejected")
		return nil, err
	}
	defer s.settle(ctx, res)

	conv, err := s.Authorizer.AuthorizeConversation(ctx, req.UserID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	release, err := s.Locker.Acquire(ctx, lockKey(conv.ID), s.settings.LockTTL)
	if err != nil {
		return nil, err
	}
	defer s.release(ctx, release, conv.ID)

	target, err := s.Messages.GetByID(ctx, req.MessageID)
	if err != nil {
		return nil, err
	}
	if target.ConversationID != conv.ID {
		return nil, fmt.Errorf("message %s: %w", req.MessageID, domain.ErrNotFound)
	}
	if target.Role != llmModels.RoleUser {
		return nil, fmt.Errorf("%w: only user messages can be edited", domain.ErrValidation)
	}

	err = s.TxManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.Messages.UpdateContent(ctx, target.ID, req.Content); err != nil {
			return fmt.Errorf("update message: %w", err)
		}
		removed, err := s.Messages.DeleteAfter(ctx, conv.ID, target.CreatedAt)
		if err != nil {
			return fmt.Errorf("delete later messages: %w", err)
		}
		if err := s.Conversations.Touch(ctx, conv.ID); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		s.logger.Debug("message edited",
			"message_id", target.ID,
			"conversation_id", conv.ID,
			"removed", removed,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	target.Content = req.Content
	target.IsEdited = true

	model, err := s.Catalog.Resolve(ctx, deref(req.Model), conv.Model, deref(user.DefaultModel))
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}

	history, err := s.Messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	return s.runTurn(ctx, &turn{
		kind:    turnEdit,
		user:    user,
		conv:    conv,
		model:   model,
		history: history,
		userMsg: target,
		quota:   res,
	})
}

// reservation is one message charged against the user's daily quota. It is
// refunded by settle unless the turn committed.
type reservation struct {
	userID    string
	used      int
	committed bool
}

// admit loads the user, applies the quota and ban checks in that order, then
// reserves one message. The reservation is the authoritative check: the
// counter read above may already be stale.
func (s *Service) admit(ctx context.Context, userID string) (*models.User, *reservation, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	decision := s.Guard.Check(quota.StateOf(user))
	if !decision.Allowed {
		return nil, nil, s.quotaExceeded(user, decision.Used, decision.Limit)
	}

	if user.IsBanned {
		return nil, nil, fmt.Errorf("%w: account suspended", domain.ErrForbidden)
	}

	used, ok, err := s.Users.ReserveMessage(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("reserve message: %w", err)
	}
	if !ok {
		return nil, nil, s.quotaExceeded(user, decision.Limit, decision.Limit)
	}
	return user, &reservation{userID: user.ID, used: used}, nil
}

func (s *Service) quotaExceeded(user *models.User, used, limit int) error {
	metrics.RecordQuotaRejection(string(user.Plan))
	s.logger.Info("quota exceeded",
		"user_id", user.ID,
		"plan", user.Plan,
		"used", used,
		"limit", limit,
	)
	return &domain.QuotaExceededError{
		Plan:  string(user.Plan),
		Used:  used,
		Limit: limit,
	}
}

// settle refunds an uncommitted reservation. It must survive a canceled
// request context.
func (s *Service) settle(ctx context.Context, r *reservation) {
	if r == nil || r.committed {
		return
	}
	if err := s.Users.RefundMessage(context.WithoutCancel(ctx), r.userID); err != nil {
		s.logger.Error("failed to refund reserved message", "user_id", r.userID, "error", err)
	}
}

func newConversation(userID, model, firstMessage string) *llmModels.Conversation {
	title := AutoTitle(firstMessage)
	return &llmModels.Conversation{
		UserID: userID,
		Model:  model,
		Title:  &title,
	}
}

// runTurn builds the prompt, calls the provider and records the outcome.
func (s *Service) runTurn(ctx context.Context, t *turn) (*llmSvc.TurnResult, error) {
	p := s.Builder.Build(t.history, s.settings.SystemPrompt, s.settings.HistoryBudget)
	if !p.Includes(t.userMsg.ID) {
		metrics.PromptCurrentDropped.Inc()
		s.logger.Warn("current message exceeds history budget and was left out of the prompt",
			"conversation_id", t.conv.ID,
			"message_id", t.userMsg.ID,
			"budget", p.Budget,
			"system_tokens", p.SystemTokens,
		)
	}

	infReq := &llmSvc.InferenceRequest{
		Model:     t.model,
		Prompt:    p.Text(),
		Messages:  p.Messages(),
		MaxTokens: s.Guard.Limit(t.user.Plan).MaxTokensPerMessage,
	}

	started := s.now()
	infCtx, cancel := context.WithTimeout(ctx, s.settings.InferenceTimeout)
	resp, err := s.Provider.Send(infCtx, infReq)
	cancel()
	elapsed := s.now().Sub(started)

	if err != nil {
		metrics.RecordInference(s.Provider.Name(), t.model, "error", elapsed.Seconds())
		metrics.RecordTurn(t.kind, "failed")
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", s.settings.InferenceTimeout, err)
		}
		s.saveFailedAttempt(ctx, t, &models.UsageLog{ResponseTimeMs: int(elapsed.Milliseconds())}, err)
		s.logger.Warn("inference failed",
			"kind", t.kind,
			"conversation_id", t.conv.ID,
			"user_id", t.user.ID,
			"model", t.model,
			"provider", s.Provider.Name(),
			"response_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, &domain.InferenceError{Model: t.model, Err: err}
	}
	metrics.RecordInference(s.Provider.Name(), t.model, "success", elapsed.Seconds())

	promptTokens := resp.PromptTokens
	if promptTokens <= 0 {
		promptTokens = s.Tokens.Estimate(infReq.Prompt)
	}
	completionTokens := resp.CompletionTokens
	if completionTokens <= 0 {
		completionTokens = s.Tokens.Estimate(resp.Content)
	}
	cost := s.Costs.Estimate(t.model, promptTokens, completionTokens)

	assistant := &llmModels.Message{
		ConversationID:   t.conv.ID,
		Role:             llmModels.RoleAssistant,
		Content:          resp.Content,
		Model:            &t.model,
		PromptTokens:     &promptTokens,
		CompletionTokens: &completionTokens,
	}

	entry := &models.UsageLog{
		UserID:           t.user.ID,
		ConversationID:   &t.conv.ID,
		Model:            t.model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		EstimatedCost:    cost,
		ResponseTimeMs:   int(elapsed.Milliseconds()),
		Success:          true,
	}

	err = s.TxManager.ExecTx(ctx, func(ctx context.Context) error {
		if t.truncateAfter != nil {
			if _, err := s.Messages.DeleteAfter(ctx, t.conv.ID, *t.truncateAfter); err != nil {
				return fmt.Errorf("truncate history: %w", err)
			}
		}
		if err := s.Messages.Create(ctx, assistant); err != nil {
			return fmt.Errorf("save assistant message: %w", err)
		}
		if err := s.UsageLogs.Create(ctx, entry); err != nil {
			return fmt.Errorf("save usage log: %w", err)
		}
		if err := s.Conversations.Touch(ctx, t.conv.ID); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordTurn(t.kind, "error")
		// the reply is lost but the provider call happened
		failed := *entry
		s.saveFailedAttempt(ctx, t, &failed, err)
		s.logger.Error("failed to persist turn",
			"kind", t.kind,
			"conversation_id", t.conv.ID,
			"user_id", t.user.ID,
			"error", err,
		)
		return nil, err
	}
	t.quota.committed = true

	metrics.RecordTurn(t.kind, "success")
	metrics.RecordUsage(t.model, promptTokens, completionTokens, cost)

	s.logger.Info("turn completed",
		"kind", t.kind,
		"conversation_id", t.conv.ID,
		"message_id", assistant.ID,
		"user_id", t.user.ID,
		"model", t.model,
		"prompt_tokens", promptTokens,
		"completion_tokens", completionTokens,
		"estimated_cost", cost.String(),
		"history_included", len(p.History),
		"history_dropped", p.Dropped,
		"response_ms", elapsed.Milliseconds(),
	)

	return &llmSvc.TurnResult{
		ConversationID: t.conv.ID,
		Message:        assistant,
		Remaining: s.Guard.Remaining(quota.State{
			Plan:          t.user.Plan,
			MessagesUsed:  t.quota.used,
			MessagesLimit: t.user.MessagesLimit,
		}),
	}, nil
}

// saveFailedAttempt writes a success=false usage row outside any
// transaction. It must survive a canceled request context.
func (s *Service) saveFailedAttempt(ctx context.Context, t *turn, entry *models.UsageLog, cause error) {
	msg := cause.Error()
	entry.ID = ""
	entry.UserID = t.user.ID
	entry.ConversationID = &t.conv.ID
	entry.Model = t.model
	entry.Success = false
	entry.ErrorMessage = &msg

	if err := s.UsageLogs.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("failed to save usage log", "conversation_id", t.conv.ID, "error", err)
	}
}

func (s *Service) release(ctx context.Context, release llmSvc.ReleaseFunc, conversationID string) {
	if err := release(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("failed to release conversation lock", "conversation_id", conversationID, "error", err)
	}
}

// AutoTitle derives a conversation title from its first message: trimmed,
// newlines folded to spaces, at most config.AutoTitleLength runes with "..."
// appended when cut.
func AutoTitle(message string) string {
	title := strings.TrimSpace(message)
	title = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(title)
	if utf8.RuneCountInString(title) <= config.AutoTitleLength {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:config.AutoTitleLength])) + "..."
}

func validateContent(content string) error {
	err := validation.Validate(content,
		validation.By(notBlank),
		validation.RuneLength(0, config.MaxMessageLength),
	)
	if err != nil {
		return fmt.Errorf("%w: message %v", domain.ErrValidation, err)
	}
	return nil
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func indexOf(history []llmModels.Message, id string) int {
	for i := range history {
		if history[i].ID == id {
			return i
		}
	}
	return -1
}

func lockKey(conversationID string) string {
	return "conversation:" + conversationID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
