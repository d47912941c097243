package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sterling9879/Sage-IA/internal/config"
	"github.com/sterling9879/Sage-IA/internal/domain"
	llmModels "github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	llmRepo "github.com/sterling9879/Sage-IA/internal/domain/repositories/llm"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	llmSvc "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

// Service implements the ConversationService interface
// Handles conversation CRUD; chat turns live in the chat package.
type Service struct {
	convRepo   llmRepo.ConversationRepository
	msgRepo    llmRepo.MessageRepository
	userRepo   repositories.UserRepository
	authorizer services.ResourceAuthorizer
	catalog    services.ModelCatalog
	logger     *slog.Logger
}

// NewService creates a new conversation service
func NewService(
	convRepo llmRepo.ConversationRepository,
	msgRepo llmRepo.MessageRepository,
	userRepo repositories.UserRepository,
	authorizer services.ResourceAuthorizer,
	catalog services.ModelCatalog,
	logger *slog.Logger,
) llmSvc.ConversationService {
	return &Service{
		convRepo:   convRepo,
		msgRepo:    msgRepo,
		userRepo:   userRepo,
		authorizer: authorizer,
		catalog:    catalog,
		logger:     logger,
	}
}

// CreateConversation creates an empty conversation
func (s *Service) CreateConversation(ctx context.Context, req *llmSvc.CreateConversationRequest) (*llmModels.Conversation, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	model, err := s.catalog.Resolve(ctx, deref(req.Model), deref(user.DefaultModel))
	if err != nil {
		return nil, err
	}

	conv := &llmModels.Conversation{
		UserID: req.UserID,
		Model:  model,
		Title:  normalizeTitle(req.Title),
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created",
		"id", conv.ID,
		"user_id", req.UserID,
		"model", model,
	)
	return conv, nil
}

// GetConversation returns the conversation with its messages
func (s *Service) GetConversation(ctx context.Context, conversationID, userID string) (*llmModels.Conversation, error) {
	conv, err := s.authorizer.AuthorizeConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.msgRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []llmModels.Message{}
	}
	conv.Messages = messages
	count := len(messages)
	conv.MessageCount = &count

	return conv, nil
}

// ListConversations returns a page of the user's conversations
func (s *Service) ListConversations(ctx context.Context, params llmModels.ListConversationsParams) (*llmSvc.ConversationPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	switch {
	case params.Limit <= 0:
		params.Limit = config.DefaultPageSize
	case params.Limit > config.MaxPageSize:
		params.Limit = config.MaxPageSize
	}

	convs, total, err := s.convRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []llmModels.Conversation{}
	}

	return &llmSvc.ConversationPage{
		Conversations: convs,
		Pagination:    llmSvc.NewPagination(params.Page, params.Limit, total),
	}, nil
}

// UpdateConversation applies a partial update
func (s *Service) UpdateConversation(ctx context.Context, conversationID, userID string, req *llmSvc.UpdateConversationRequest) (*llmModels.Conversation, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	conv, err := s.authorizer.AuthorizeConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if req.Title.Present {
		conv.Title = normalizeTitle(req.Title.Value)
	}
	if req.Model != nil {
		model := strings.TrimSpace(*req.Model)
		resolved, err := s.catalog.Resolve(ctx, model)
		if err != nil {
			return nil, err
		}
		if resolved != model {
			return nil, fmt.Errorf("%w: model %s is not available", domain.ErrValidation, model)
		}
		conv.Model = model
	}
	if req.IsPinned != nil {
		conv.IsPinned = *req.IsPinned
	}
	if req.IsArchived != nil {
		conv.IsArchived = *req.IsArchived
	}

	if err := s.convRepo.Update(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation updated",
		"id", conv.ID,
		"user_id", userID,
	)
	return conv, nil
}

// DeleteConversation removes the conversation and its messages
func (s *Service) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	if _, err := s.authorizer.AuthorizeConversation(ctx, userID, conversationID); err != nil {
		return err
	}

	if err := s.convRepo.Delete(ctx, conversationID); err != nil {
		return err
	}

	s.logger.Info("conversation deleted",
		"id", conversationID,
		"user_id", userID,
	)
	return nil
}

// Validation methods

func (s *Service) validateCreateRequest(req *llmSvc.CreateConversationRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title, validation.RuneLength(0, config.MaxConversationTitleLength)),
	)
}

func (s *Service) validateUpdateRequest(req *llmSvc.UpdateConversationRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Model, validation.NilOrNotEmpty),
	)
	if err != nil {
		return err
	}
	if req.Title.Value != nil {
		return validation.Validate(*req.Title.Value,
			validation.RuneLength(0, config.MaxConversationTitleLength).Error("title is too long"),
		)
	}
	return nil
}

// normalizeTitle trims; blank titles are stored as NULL.
func normalizeTitle(title *string) *string {
	if title == nil {
		return nil
	}
	t := strings.TrimSpace(*title)
	if t == "" {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
