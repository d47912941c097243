package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sterling9879/Sage-IA/internal/domain"
	llmModels "github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	llmRepo "github.com/sterling9879/Sage-IA/internal/domain/repositories/llm"
	"github.com/sterling9879/Sage-IA/internal/repository/postgres"
)

const conversationColumns = `id, user_id, model, title, is_pinned, is_archived, created_at, updated_at`

// PostgresConversationRepository implements the ConversationRepository interface using PostgreSQL
type PostgresConversationRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewConversationRepository creates a new PostgresConversationRepository
func NewConversationRepository(config *postgres.RepositoryConfig) llmRepo.ConversationRepository {
	return &PostgresConversationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a conversation
func (r *PostgresConversationRepository) Create(ctx context.Context, conv *llmModels.Conversation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, model, title, is_pinned, is_archived)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		conv.UserID,
		conv.Model,
		conv.Title,
		conv.IsPinned,
		conv.IsArchived,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("user %s: %w", conv.UserID, domain.ErrNotFound)
		}
		return fmt.Errorf("create conversation: %w", err)
	}

	return nil
}

// GetByID retrieves a conversation by ID
func (r *PostgresConversationRepository) GetByID(ctx context.Context, id string) (*llmModels.Conversation, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, conversationColumns, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	conv, err := scanConversation(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.NotFoundOr(err, "conversation", id, "get conversation")
	}
	return conv, nil
}

// List returns a page of the user's conversations, pinned first
func (r *PostgresConversationRepository) List(ctx context.Context, params llmModels.ListConversationsParams) ([]llmModels.Conversation, int, error) {
	executor := postgres.GetExecutor(ctx, r.pool)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1 AND is_archived = $2`, r.tables.Conversations)
	if err := executor.QueryRow(ctx, countQuery, params.UserID, params.Archived).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.user_id, c.model, c.title, c.is_pinned, c.is_archived, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM %s m WHERE m.conversation_id = c.id)
		FROM %s c
		WHERE c.user_id = $1 AND c.is_archived = $2
		ORDER BY c.is_pinned DESC, c.updated_at DESC
		LIMIT $3 OFFSET $4
	`, r.tables.Messages, r.tables.Conversations)

	rows, err := executor.Query(ctx, query, params.UserID, params.Archived, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []llmModels.Conversation
	for rows.Next() {
		var c llmModels.Conversation
		var count int
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Model, &c.Title, &c.IsPinned, &c.IsArchived,
			&c.CreatedAt, &c.UpdatedAt, &count,
		); err != nil {
			return nil, 0, fmt.Errorf("scan conversation: %w", err)
		}
		c.MessageCount = &count
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate conversations: %w", err)
	}

	return conversations, total, nil
}

// Update writes the user-editable fields
func (r *PostgresConversationRepository) Update(ctx context.Context, conv *llmModels.Conversation) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $2, model = $3, is_pinned = $4, is_archived = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		conv.ID,
		conv.Title,
		conv.Model,
		conv.IsPinned,
		conv.IsArchived,
	).Scan(&conv.UpdatedAt)
	if err != nil {
		return postgres.NotFoundOr(err, "conversation", conv.ID, "update conversation")
	}
	return nil
}

// Touch advances updated_at so the conversation sorts as most recent
func (r *PostgresConversationRepository) Touch(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET updated_at = NOW() WHERE id = $1`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// Delete removes the conversation; messages cascade
func (r *PostgresConversationRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Conversations)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return postgres.NotFoundOr(err, "conversation", id, "delete conversation")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanConversation(row pgx.Row) (*llmModels.Conversation, error) {
	var c llmModels.Conversation
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Model, &c.Title, &c.IsPinned, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
