package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
)

const userColumns = `id, email, name, plan, messages_used, messages_limit, is_banned,
	default_model, theme, last_active_at, created_at, updated_at`

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new PostgresUserRepository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// EnsureUser inserts a FREE user unless the id already exists
func (r *PostgresUserRepository) EnsureUser(ctx context.Context, id, email string, messagesLimit int) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, plan, messages_limit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, email, models.PlanFree, messagesLimit)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	if tag.RowsAffected() > 0 {
		r.logger.Info("user provisioned", "user_id", id)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	user, err := scanUser(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, NotFoundOr(err, "user", id, "get user")
	}
	return user, nil
}

// UpdateProfile writes the self-service profile fields
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, default_model = $3, theme = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, user.ID, user.Name, user.DefaultModel, user.Theme).Scan(&user.UpdatedAt)
	if err != nil {
		return NotFoundOr(err, "user", user.ID, "update user profile")
	}
	return nil
}

// UpdateAccount writes the admin-managed account fields
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET plan = $2, messages_limit = $3, is_banned = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, user.ID, user.Plan, user.MessagesLimit, user.IsBanned).Scan(&user.UpdatedAt)
	if err != nil {
		return NotFoundOr(err, "user", user.ID, "update user account")
	}
	return nil
}

// ReserveMessage charges one message only while the user is under their
// cap. The check and the increment are one statement, so concurrent turns
// cannot overshoot the limit.
func (r *PostgresUserRepository) ReserveMessage(ctx context.Context, id string) (int, bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET messages_used = messages_used + 1, last_active_at = NOW()
		WHERE id = $1 AND (plan = $2 OR messages_used < messages_limit)
		RETURNING messages_used
	`, r.tables.Users)

	var used int
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, models.PlanUnlimited).Scan(&used)
	if IsPgNoRowsError(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, NotFoundOr(err, "user", id, "reserve message")
	}
	return used, true, nil
}

// RefundMessage returns a reserved message after a failed turn
func (r *PostgresUserRepository) RefundMessage(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET messages_used = GREATEST(messages_used - 1, 0)
		WHERE id = $1
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("refund message: %w", err)
	}
	return nil
}

// ResetUsage zeroes one user's counter
func (r *PostgresUserRepository) ResetUsage(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET messages_used = 0, updated_at = NOW() WHERE id = $1`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return NotFoundOr(err, "user", id, "reset usage")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ResetDailyUsage zeroes the counter of every capped plan
func (r *PostgresUserRepository) ResetDailyUsage(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET messages_used = 0
		WHERE plan IN ($1, $2) AND messages_used <> 0
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, models.PlanFree, models.PlanPro)
	if err != nil {
		return 0, fmt.Errorf("reset daily usage: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns a page of users with per-user conversation and message counts
func (r *PostgresUserRepository) List(ctx context.Context, params repositories.ListUsersParams) ([]models.UserListItem, int, error) {
	where := "TRUE"
	args := []any{}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = "(u.email ILIKE $1 OR u.name ILIKE $1)"
	}

	executor := GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s u WHERE %s`, r.tables.Users, where)
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	offset := 0
	if params.Page > 1 {
		offset = (params.Page - 1) * params.Limit
	}
	args = append(args, params.Limit, offset)

	query := fmt.Sprintf(`
		SELECT u.id, u.email, u.name, u.plan, u.messages_used, u.messages_limit, u.is_banned,
			u.default_model, u.theme, u.last_active_at, u.created_at, u.updated_at,
			(SELECT COUNT(*) FROM %[2]s c WHERE c.user_id = u.id),
			(SELECT COUNT(*) FROM %[3]s m JOIN %[2]s c ON c.id = m.conversation_id
				WHERE c.user_id = u.id AND m.role = 'USER')
		FROM %[1]s u
		WHERE %[4]s
		ORDER BY u.created_at DESC
		LIMIT $%[5]d OFFSET $%[6]d
	`, r.tables.Users, r.tables.Conversations, r.tables.Messages, where, len(args)-1, len(args))

	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.UserListItem
	for rows.Next() {
		var item models.UserListItem
		u := &item.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.Plan, &u.MessagesUsed, &u.MessagesLimit, &u.IsBanned,
			&u.DefaultModel, &u.Theme, &u.LastActiveAt, &u.CreatedAt, &u.UpdatedAt,
			&item.ConversationCount, &item.TotalMessages,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Plan, &u.MessagesUsed, &u.MessagesLimit, &u.IsBanned,
		&u.DefaultModel, &u.Theme, &u.LastActiveAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
