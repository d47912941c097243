package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
	"github.com/sterling9879/Sage-IA/internal/domain/services"
)

type memUserRepo struct {
	users      map[string]*models.User
	ensured    map[string]int // id -> limit passed to EnsureUser
	lastParams repositories.ListUsersParams
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	r := &memUserRepo{users: map[string]*models.User{}, ensured: map[string]int{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) EnsureUser(_ context.Context, id, email string, limit int) error {
	r.ensured[id] = limit
	if _, ok := r.users[id]; !ok {
		r.users[id] = &models.User{ID: id, Email: email, Plan: models.PlanFree, MessagesLimit: limit}
	}
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, u *models.User) error {
	cur := r.users[u.ID]
	cur.Name, cur.DefaultModel, cur.Theme = u.Name, u.DefaultModel, u.Theme
	return nil
}

func (r *memUserRepo) UpdateAccount(_ context.Context, u *models.User) error {
	cur := r.users[u.ID]
	cur.Plan, cur.MessagesLimit, cur.IsBanned = u.Plan, u.MessagesLimit, u.IsBanned
	return nil
}

func (r *memUserRepo) ReserveMessage(_ context.Context, id string) (int, bool, error) {
	u, ok := r.users[id]
	if !ok {
		return 0, false, domain.ErrNotFound
	}
	if u.Plan != models.PlanUnlimited && u.MessagesUsed >= u.MessagesLimit {
		return 0, false, nil
	}
	u.MessagesUsed++
	return u.MessagesUsed, true, nil
}

func (r *memUserRepo) RefundMessage(_ context.Context, id string) error {
	if u := r.users[id]; u.MessagesUsed > 0 {
		u.MessagesUsed--
	}
	return nil
}

func (r *memUserRepo) ResetUsage(_ context.Context, id string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.MessagesUsed = 0
	return nil
}

func (r *memUserRepo) ResetDailyUsage(context.Context) (int64, error) { return 0, nil }

func (r *memUserRepo) List(_ context.Context, p repositories.ListUsersParams) ([]models.UserListItem, int, error) {
	r.lastParams = p
	return nil, 0, nil
}

type memModelRepo struct {
	configs map[string]models.ModelConfig
}

func (r *memModelRepo) ListEnabled(context.Context) ([]models.ModelConfig, error) {
	var out []models.ModelConfig
	for _, c := range r.configs {
		if c.IsEnabled {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memModelRepo) ListAll(context.Context) ([]models.ModelConfig, error) {
	var out []models.ModelConfig
	for _, c := range r.configs {
		out = append(out, c)
	}
	return out, nil
}

func (r *memModelRepo) Get(_ context.Context, id string) (*models.ModelConfig, error) {
	c, ok := r.configs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memModelRepo) Upsert(_ context.Context, c *models.ModelConfig) error {
	r.configs[c.ModelID] = *c
	return nil
}

type stubAnalytics struct {
	daily     []models.DailyUsage
	byModel   []models.ModelUsage
	users     []models.User
	logs      []models.UsageLog
	from      time.Time
	userLimit int
	logLimit  int
}

func (a *stubAnalytics) CountUsers(context.Context) (int, error) { return 10, nil }
func (a *stubAnalytics) CountActiveUsersSince(context.Context, time.Time) (int, error) {
	return 4, nil
}
func (a *stubAnalytics) CountConversations(context.Context) (int, error) { return 25, nil }
func (a *stubAnalytics) CountMessages(context.Context) (int, error)      { return 300, nil }
func (a *stubAnalytics) CountUserMessagesSince(context.Context, time.Time) (int, error) {
	return 12, nil
}
func (a *stubAnalytics) SumCostSince(context.Context, time.Time) (decimal.Decimal, error) {
	return decimal.RequireFromString("1.25"), nil
}
func (a *stubAnalytics) DailyUsage(_ context.Context, from time.Time) ([]models.DailyUsage, error) {
	a.from = from
	return a.daily, nil
}
func (a *stubAnalytics) ModelUsage(context.Context, time.Time) ([]models.ModelUsage, error) {
	return a.byModel, nil
}
func (a *stubAnalytics) RecentUsers(_ context.Context, limit int) ([]models.User, error) {
	a.userLimit = limit
	return a.users[:min(limit, len(a.users))], nil
}
func (a *stubAnalytics) RecentUsageLogs(_ context.Context, limit int) ([]models.UsageLog, error) {
	a.logLimit = limit
	return a.logs[:min(limit, len(a.logs))], nil
}

type enabledCatalog map[string]bool

func (c enabledCatalog) ListAvailable(context.Context) ([]services.ModelInfo, error) {
	return nil, nil
}

func (c enabledCatalog) Resolve(_ context.Context, candidates ...string) (string, error) {
	for _, m := range candidates {
		if c[m] {
			return m, nil
		}
	}
	return "default/model", nil
}
