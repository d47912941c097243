package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sterling9879/Sage-IA/internal/config"
	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
	"github.com/sterling9879/Sage-IA/internal/service/quota"

	"github.com/shopspring/decimal"
)

// AdminService implements the AdminService interface
type AdminService struct {
	userRepo      repositories.UserRepository
	modelRepo     repositories.ModelConfigRepository
	analyticsRepo repositories.AnalyticsRepository
	guard         *quota.Guard
	logger        *slog.Logger
	now           func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo repositories.UserRepository,
	modelRepo repositories.ModelConfigRepository,
	analyticsRepo repositories.AnalyticsRepository,
	guard *quota.Guard,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		userRepo:      userRepo,
		modelRepo:     modelRepo,
		analyticsRepo: analyticsRepo,
		guard:         guard,
		logger:        logger,
		now:           time.Now,
	}
}

var _ services.AdminService = (*AdminService)(nil)

// Overview runs the headline counters concurrently
func (s *AdminService) Overview(ctx context.Context) (*models.AnalyticsOverview, error) {
	now := s.now().UTC()
	today := quota.DayStart(now)
	out := &models.AnalyticsOverview{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalUsers, err = s.analyticsRepo.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveUsers24h, err = s.analyticsRepo.CountActiveUsersSince(gctx, now.Add(-24*time.Hour))
		return err
	})
	g.Go(func() (err error) {
		out.TotalConversations, err = s.analyticsRepo.CountConversations(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalMessages, err = s.analyticsRepo.CountMessages(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.MessagesToday, err = s.analyticsRepo.CountUserMessagesSince(gctx, today)
		return err
	})
	g.Go(func() (err error) {
		out.EstimatedCostToday, err = s.analyticsRepo.SumCostSince(gctx, today)
		return err
	})
	g.Go(func() (err error) {
		out.RecentUsers, err = s.analyticsRepo.RecentUsers(gctx, max(config.RecentUsersShown, config.ActivityFeedUsers))
		return err
	})
	var logs []models.UsageLog
	g.Go(func() (err error) {
		logs, err = s.analyticsRepo.RecentUsageLogs(gctx, config.ActivityFeedLogs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analytics overview: %w", err)
	}

	out.Activity = activityFeed(out.RecentUsers, logs)
	if len(out.RecentUsers) > config.RecentUsersShown {
		out.RecentUsers = out.RecentUsers[:config.RecentUsersShown]
	}
	if out.RecentUsers == nil {
		out.RecentUsers = []models.User{}
	}
	return out, nil
}

// activityFeed merges the newest signups with the newest usage rows, newest
// first. users and logs are expected newest first.
func activityFeed(users []models.User, logs []models.UsageLog) []models.ActivityEvent {
	events := make([]models.ActivityEvent, 0, config.ActivityFeedUsers+len(logs))
	for i, u := range users {
		if i == config.ActivityFeedUsers {
			break
		}
		who := u.Email
		if u.Name != nil && *u.Name != "" {
			who = *u.Name
		}
		events = append(events, models.ActivityEvent{
			ID:        "user-" + u.ID,
			Type:      models.ActivityUser,
			Message:   "new user: " + who,
			CreatedAt: u.CreatedAt,
		})
	}
	for _, l := range logs {
		e := models.ActivityEvent{
			ID:        "log-" + l.ID,
			Type:      models.ActivityInfo,
			Message:   fmt.Sprintf("%s answered in %dms (%d tokens)", l.Model, l.ResponseTimeMs, l.TotalTokens),
			CreatedAt: l.CreatedAt,
		}
		if !l.Success {
			e.Type = models.ActivityError
			e.Message = l.Model + " failed"
			if l.ErrorMessage != nil {
				e.Message += ": " + *l.ErrorMessage
			}
		}
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if len(events) > config.ActivityFeedLength {
		events = events[:config.ActivityFeedLength]
	}
	return events
}

// DailyUsage returns one row per UTC day for the last days days, oldest
// first. Days without activity are zero-filled.
func (s *AdminService) DailyUsage(ctx context.Context, days int) ([]models.DailyUsage, error) {
	days = clampDays(days, config.DailyUsageDays)
	from := quota.DayStart(s.now()).AddDate(0, 0, -(days - 1))

	rows, err := s.analyticsRepo.DailyUsage(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("daily usage: %w", err)
	}

	byDate := make(map[string]models.DailyUsage, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	out := make([]models.DailyUsage, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format(time.DateOnly)
		row, ok := byDate[date]
		if !ok {
			row = models.DailyUsage{Date: date, EstimatedCost: decimal.Zero}
		}
		out = append(out, row)
	}
	return out, nil
}

// ModelUsage breaks usage down by model with each model's share of requests
func (s *AdminService) ModelUsage(ctx context.Context, days int) ([]models.ModelUsage, error) {
	days = clampDays(days, config.ModelUsageDays)
	since := quota.DayStart(s.now()).AddDate(0, 0, -(days - 1))

	rows, err := s.analyticsRepo.ModelUsage(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("model usage: %w", err)
	}

	total := 0
	for _, r := range rows {
		total += r.Requests
	}
	for i := range rows {
		if total > 0 {
			rows[i].Percentage = float64(rows[i].Requests) / float64(total) * 100
		}
	}
	if rows == nil {
		rows = []models.ModelUsage{}
	}
	return rows, nil
}

// ListUsers returns a page of the user table
func (s *AdminService) ListUsers(ctx context.Context, params repositories.ListUsersParams) (*services.UserPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	switch {
	case params.Limit <= 0:
		params.Limit = config.DefaultPageSize
	case params.Limit > config.MaxPageSize:
		params.Limit = config.MaxPageSize
	}
	params.Search = strings.TrimSpace(params.Search)

	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.UserListItem{}
	}
	return &services.UserPage{Users: users, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// UpdateUser changes plan and ban state. A plan change rewrites the daily
// limit to the new plan's allowance.
func (s *AdminService) UpdateUser(ctx context.Context, userID string, req *services.AdminUpdateUserRequest) (*models.User, error) {
	if req.Plan != nil && !req.Plan.Valid() {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrValidation, *req.Plan)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Plan != nil && *req.Plan != user.Plan {
		user.Plan = *req.Plan
		user.MessagesLimit = max(0, s.guard.MessagesLimit(user.Plan))
	}
	if req.IsBanned != nil {
		user.IsBanned = *req.IsBanned
	}

	if err := s.userRepo.UpdateAccount(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user account updated by admin",
		"user_id", userID,
		"plan", user.Plan,
		"messages_limit", user.MessagesLimit,
		"is_banned", user.IsBanned,
	)
	return user, nil
}

// ResetUserUsage zeroes the user's counter for today
func (s *AdminService) ResetUserUsage(ctx context.Context, userID string) (*models.User, error) {
	if err := s.userRepo.ResetUsage(ctx, userID); err != nil {
		return nil, err
	}
	s.logger.Info("user usage reset by admin", "user_id", userID)
	return s.userRepo.GetByID(ctx, userID)
}

// ListModels returns every catalog entry, enabled or not
func (s *AdminService) ListModels(ctx context.Context) ([]models.ModelConfig, error) {
	configs, err := s.modelRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if configs == nil {
		configs = []models.ModelConfig{}
	}
	return configs, nil
}

// UpsertModel inserts or replaces a catalog entry
func (s *AdminService) UpsertModel(ctx context.Context, cfg *models.ModelConfig) (*models.ModelConfig, error) {
	cfg.ModelID = strings.TrimSpace(cfg.ModelID)
	cfg.DisplayName = strings.TrimSpace(cfg.DisplayName)
	cfg.Provider = strings.TrimSpace(cfg.Provider)

	err := validation.ValidateStruct(cfg,
		validation.Field(&cfg.ModelID, validation.Required, validation.Length(1, 200)),
		validation.Field(&cfg.DisplayName, validation.Required, validation.Length(1, 200)),
		validation.Field(&cfg.Provider, validation.Required),
		validation.Field(&cfg.MaxTokens, validation.Min(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.modelRepo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("model config upserted",
		"model_id", cfg.ModelID,
		"is_enabled", cfg.IsEnabled,
	)
	return s.modelRepo.Get(ctx, cfg.ModelID)
}

func clampDays(days, fallback int) int {
	switch {
	case days <= 0:
		return fallback
	case days > config.MaxDailyUsageDays:
		return config.MaxDailyUsageDays
	default:
		return days
	}
}
