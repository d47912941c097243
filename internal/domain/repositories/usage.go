package repositories

import (
	"context"
	"time"

	"github.com/sterling9879/Sage-IA/internal/domain/models"

	"github.com/shopspring/decimal"
)

// UsageLogRepository appends inference attempt records
type UsageLogRepository interface {
	Create(ctx context.Context, log *models.UsageLog) error
}

// AnalyticsRepository runs the aggregate queries behind the admin dashboard.
// All time arguments are UTC instants.
type AnalyticsRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountActiveUsersSince(ctx context.Context, since time.Time) (int, error)
	CountConversations(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)
	CountUserMessagesSince(ctx context.Context, since time.Time) (int, error)
	SumCostSince(ctx context.Context, since time.Time) (decimal.Decimal, error)

	// DailyUsage returns one row per UTC day with activity since from
	DailyUsage(ctx context.Context, from time.Time) ([]models.DailyUsage, error)

	// ModelUsage groups usage logs since the given instant by model
	ModelUsage(ctx context.Context, since time.Time) ([]models.ModelUsage, error)

	// RecentUsers returns the newest signups, newest first
	RecentUsers(ctx context.Context, limit int) ([]models.User, error)

	// RecentUsageLogs returns the newest usage rows, newest first
	RecentUsageLogs(ctx context.Context, limit int) ([]models.UsageLog, error)
}
