package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sterling9879/Sage-IA/internal/domain"
	llmModels "github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	llmRepo "github.com/sterling9879/Sage-IA/internal/domain/repositories/llm"
	"github.com/sterling9879/Sage-IA/internal/repository/postgres"
)

const messageColumns = `id, conversation_id, role, content, model, prompt_tokens, completion_tokens, is_edited, created_at`

// PostgresMessageRepository implements the MessageRepository interface using PostgreSQL
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new PostgresMessageRepository
func NewMessageRepository(config *postgres.RepositoryConfig) llmRepo.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a message. created_at is bumped past the newest existing
// message so history order never depends on clock resolution.
func (r *PostgresMessageRepository) Create(ctx context.Context, msg *llmModels.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (conversation_id, role, content, model, prompt_tokens, completion_tokens, is_edited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, GREATEST(
			clock_timestamp(),
			(SELECT MAX(created_at) FROM %[1]s WHERE conversation_id = $1) + INTERVAL '1 microsecond'
		))
		RETURNING id, created_at
	`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.Model,
		msg.PromptTokens,
		msg.CompletionTokens,
		msg.IsEdited,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("conversation %s: %w", msg.ConversationID, domain.ErrNotFound)
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by ID
func (r *PostgresMessageRepository) GetByID(ctx context.Context, id string) (*llmModels.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, messageColumns, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	msg, err := scanMessage(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.NotFoundOr(err, "message", id, "get message")
	}
	return msg, nil
}

// ListByConversation returns the conversation's messages oldest first
func (r *PostgresMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]llmModels.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, messageColumns, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []llmModels.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// UpdateContent replaces the content and marks the message edited
func (r *PostgresMessageRepository) UpdateContent(ctx context.Context, id, content string) error {
	query := fmt.Sprintf(`UPDATE %s SET content = $2, is_edited = TRUE WHERE id = $1`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, content)
	if err != nil {
		return postgres.NotFoundOr(err, "message", id, "update message")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeleteAfter removes every message created strictly after the instant
func (r *PostgresMessageRepository) DeleteAfter(ctx context.Context, conversationID string, after time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE conversation_id = $1 AND created_at > $2`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, conversationID, after)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (*llmModels.Message, error) {
	var m llmModels.Message
	if err := row.Scan(
		&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Model,
		&m.PromptTokens, &m.CompletionTokens, &m.IsEdited, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
