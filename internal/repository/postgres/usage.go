package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
)

// PostgresUsageLogRepository implements the UsageLogRepository interface
type PostgresUsageLogRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUsageLogRepository creates a new PostgresUsageLogRepository
func NewUsageLogRepository(config *RepositoryConfig) repositories.UsageLogRepository {
	return &PostgresUsageLogRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a usage record
func (r *PostgresUsageLogRepository) Create(ctx context.Context, log *models.UsageLog) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, conversation_id, model, prompt_tokens, completion_tokens,
			total_tokens, estimated_cost, response_time_ms, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, r.tables.UsageLogs)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		log.UserID,
		log.ConversationID,
		log.Model,
		log.PromptTokens,
		log.CompletionTokens,
		log.TotalTokens,
		log.EstimatedCost,
		log.ResponseTimeMs,
		log.Success,
		log.ErrorMessage,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("create usage log: %w", err)
	}
	return nil
}

// PostgresAnalyticsRepository implements the AnalyticsRepository interface
type PostgresAnalyticsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAnalyticsRepository creates a new PostgresAnalyticsRepository
func NewAnalyticsRepository(config *RepositoryConfig) repositories.AnalyticsRepository {
	return &PostgresAnalyticsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresAnalyticsRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresAnalyticsRepository) CountUsers(ctx context.Context) (int, error) {
	n, err := r.count(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Users))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresAnalyticsRepository) CountActiveUsersSince(ctx context.Context, since time.Time) (int, error) {
	n, err := r.count(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE last_active_at >= $1`, r.tables.Users), since)
	if err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

func (r *PostgresAnalyticsRepository) CountConversations(ctx context.Context) (int, error) {
	n, err := r.count(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Conversations))
	if err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return n, nil
}

func (r *PostgresAnalyticsRepository) CountMessages(ctx context.Context) (int, error) {
	n, err := r.count(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Messages))
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func (r *PostgresAnalyticsRepository) CountUserMessagesSince(ctx context.Context, since time.Time) (int, error) {
	n, err := r.count(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE role = 'USER' AND created_at >= $1`, r.tables.Messages), since)
	if err != nil {
		return 0, fmt.Errorf("count messages today: %w", err)
	}
	return n, nil
}

func (r *PostgresAnalyticsRepository) SumCostSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	query := fmt.Sprintf(`SELECT COALESCE(SUM(estimated_cost), 0) FROM %s WHERE created_at >= $1`, r.tables.UsageLogs)

	var total decimal.Decimal
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, since).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum cost: %w", err)
	}
	return total, nil
}

// DailyUsage groups usage logs by UTC calendar day
func (r *PostgresAnalyticsRepository) DailyUsage(ctx context.Context, from time.Time) ([]models.DailyUsage, error) {
	query := fmt.Sprintf(`
		SELECT to_char((created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD') AS day,
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT success),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(estimated_cost), 0)
		FROM %s
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`, r.tables.UsageLogs)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("daily usage: %w", err)
	}
	defer rows.Close()

	var out []models.DailyUsage
	for rows.Next() {
		var d models.DailyUsage
		if err := rows.Scan(&d.Date, &d.Requests, &d.Failures, &d.TotalTokens, &d.EstimatedCost); err != nil {
			return nil, fmt.Errorf("scan daily usage: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily usage: %w", err)
	}
	return out, nil
}

// ModelUsage groups successful and failed attempts by model, busiest first
func (r *PostgresAnalyticsRepository) ModelUsage(ctx context.Context, since time.Time) ([]models.ModelUsage, error) {
	query := fmt.Sprintf(`
		SELECT model, COUNT(*), COALESCE(SUM(total_tokens), 0), COALESCE(SUM(estimated_cost), 0)
		FROM %s
		WHERE created_at >= $1
		GROUP BY model
		ORDER BY COUNT(*) DESC, model
	`, r.tables.UsageLogs)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("model usage: %w", err)
	}
	defer rows.Close()

	var out []models.ModelUsage
	for rows.Next() {
		var m models.ModelUsage
		if err := rows.Scan(&m.Model, &m.Requests, &m.TotalTokens, &m.EstimatedCost); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model usage: %w", err)
	}
	return out, nil
}

// RecentUsers lists the newest accounts
func (r *PostgresAnalyticsRepository) RecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC LIMIT $1`, userColumns, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent users: %w", err)
	}
	return out, nil
}

// RecentUsageLogs lists the newest usage rows, failed attempts included
func (r *PostgresAnalyticsRepository) RecentUsageLogs(ctx context.Context, limit int) ([]models.UsageLog, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, conversation_id, model, prompt_tokens, completion_tokens,
			total_tokens, estimated_cost, response_time_ms, success, error_message, created_at
		FROM %s
		ORDER BY created_at DESC
		LIMIT $1
	`, r.tables.UsageLogs)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent usage logs: %w", err)
	}
	defer rows.Close()

	var out []models.UsageLog
	for rows.Next() {
		var l models.UsageLog
		err := rows.Scan(&l.ID, &l.UserID, &l.ConversationID, &l.Model, &l.PromptTokens, &l.CompletionTokens,
			&l.TotalTokens, &l.EstimatedCost, &l.ResponseTimeMs, &l.Success, &l.ErrorMessage, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan usage log: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent usage logs: %w", err)
	}
	return out, nil
}
