package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sterling9879/Sage-IA/internal/metrics"
)

// QuotaResetSchedule fires at midnight UTC, the start of a quota day.
const QuotaResetSchedule = "0 0 * * *"

const jobTimeout = 5 * time.Minute

// QuotaResetter zeroes the daily counters of capped plans.
type QuotaResetter interface {
	ResetDailyUsage(ctx context.Context) (int64, error)
}

// Manager owns the scheduled background jobs
type Manager struct {
	cron   *cron.Cron
	users  QuotaResetter
	logger *slog.Logger
}

// NewManager creates a scheduler that evaluates schedules in UTC
func NewManager(users QuotaResetter, logger *slog.Logger) *Manager {
	return &Manager{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		users:  users,
		logger: logger.With("component", "jobs"),
	}
}

// Start registers every job and starts the scheduler
func (m *Manager) Start() error {
	if _, err := m.cron.AddFunc(QuotaResetSchedule, m.runQuotaReset); err != nil {
		return fmt.Errorf("register quota reset: %w", err)
	}

	m.cron.Start()
	m.logger.Info("scheduler started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
	m.logger.Info("scheduler stopped")
}

func (m *Manager) runQuotaReset() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := m.ResetQuotas(ctx); err != nil {
		m.logger.Error("quota reset failed", "error", err)
	}
}

// ResetQuotas runs the daily quota reset once.
func (m *Manager) ResetQuotas(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := m.users.ResetDailyUsage(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset daily usage: %w", err)
	}

	metrics.QuotaResets.Add(float64(n))
	m.logger.Info("daily quotas reset", "users", n, "duration", time.Since(start))
	return n, nil
}
