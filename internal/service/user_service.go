package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sterling9879/Sage-IA/internal/config"
	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	"github.com/sterling9879/Sage-IA/internal/service/quota"
)

// UserService implements the UserService interface
type UserService struct {
	userRepo repositories.UserRepository
	catalog  services.ModelCatalog
	guard    *quota.Guard
	logger   *slog.Logger
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	catalog services.ModelCatalog,
	guard *quota.Guard,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		catalog:  catalog,
		guard:    guard,
		logger:   logger,
		now:      time.Now,
	}
}

var _ services.UserService = (*UserService)(nil)

// EnsureUser provisions a FREE account the first time a token subject is seen
func (s *UserService) EnsureUser(ctx context.Context, userID, email string) error {
	limit := s.guard.MessagesLimit(models.PlanFree)
	if err := s.userRepo.EnsureUser(ctx, userID, email, limit); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// GetProfile returns the caller's account
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile applies a partial profile update
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *services.UpdateProfileRequest) (*models.User, error) {
	if err := validateProfileRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name.Present {
		user.Name = trimToNil(req.Name.Value)
	}

	if req.DefaultModel.Present {
		model := trimToNil(req.DefaultModel.Value)
		if model != nil {
			resolved, err := s.catalog.Resolve(ctx, *model)
			if err != nil {
				return nil, err
			}
			if resolved != *model {
				return nil, fmt.Errorf("%w: model %s is not available", domain.ErrValidation, *model)
			}
		}
		user.DefaultModel = model
	}

	if req.Theme != nil {
		user.Theme = *req.Theme
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated",
		"user_id", userID,
		"has_name", req.Name.Present,
		"has_default_model", req.DefaultModel.Present,
		"has_theme", req.Theme != nil,
	)
	return user, nil
}

// GetUsage reports the caller's quota position for the current UTC day
func (s *UserService) GetUsage(ctx context.Context, userID string) (*services.UsageStatus, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	state := quota.StateOf(user)
	decision := s.guard.Check(state)
	return &services.UsageStatus{
		Plan:         user.Plan,
		Used:         decision.Used,
		Limit:        decision.Limit,
		Remaining:    decision.Remaining,
		UsagePercent: s.guard.UsagePercent(state),
		CanSend:      decision.Allowed && !user.IsBanned,
		ResetsAt:     quota.NextReset(s.now()),
	}, nil
}

func validateProfileRequest(req *services.UpdateProfileRequest) error {
	if req.Name.Value != nil {
		if err := validation.Validate(strings.TrimSpace(*req.Name.Value),
			validation.RuneLength(0, config.MaxUserNameLength).Error("name is too long"),
		); err != nil {
			return err
		}
	}
	if req.Theme != nil {
		return validation.Validate(string(*req.Theme),
			validation.Required.Error("theme must be light, dark or system"),
			validation.In(string(models.ThemeLight), string(models.ThemeDark), string(models.ThemeSystem)).
				Error("theme must be light, dark or system"),
		)
	}
	return nil
}

func trimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
