package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
	"github.com/sterling9879/Sage-IA/internal/domain/repositories"
)

const modelConfigColumns = `model_id, display_name, provider, is_enabled, is_free, max_tokens, sort_order, created_at, updated_at`

// PostgresModelConfigRepository implements the ModelConfigRepository interface
type PostgresModelConfigRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewModelConfigRepository creates a new PostgresModelConfigRepository
func NewModelConfigRepository(config *RepositoryConfig) repositories.ModelConfigRepository {
	return &PostgresModelConfigRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// ListEnabled returns enabled models ordered by sort_order
func (r *PostgresModelConfigRepository) ListEnabled(ctx context.Context) ([]models.ModelConfig, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE is_enabled
		ORDER BY sort_order, display_name
	`, modelConfigColumns, r.tables.ModelConfigs)
	return r.list(ctx, query)
}

// ListAll returns every model ordered by sort_order
func (r *PostgresModelConfigRepository) ListAll(ctx context.Context) ([]models.ModelConfig, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY sort_order, display_name
	`, modelConfigColumns, r.tables.ModelConfigs)
	return r.list(ctx, query)
}

// Get retrieves one catalog entry
func (r *PostgresModelConfigRepository) Get(ctx context.Context, modelID string) (*models.ModelConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE model_id = $1`, modelConfigColumns, r.tables.ModelConfigs)

	executor := GetExecutor(ctx, r.pool)
	cfg, err := scanModelConfig(executor.QueryRow(ctx, query, modelID))
	if err != nil {
		return nil, NotFoundOr(err, "model", modelID, "get model config")
	}
	return cfg, nil
}

// Upsert inserts or replaces the entry keyed by ModelID
func (r *PostgresModelConfigRepository) Upsert(ctx context.Context, cfg *models.ModelConfig) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (model_id, display_name, provider, is_enabled, is_free, max_tokens, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (model_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			provider = EXCLUDED.provider,
			is_enabled = EXCLUDED.is_enabled,
			is_free = EXCLUDED.is_free,
			max_tokens = EXCLUDED.max_tokens,
			sort_order = EXCLUDED.sort_order,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`, r.tables.ModelConfigs)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		cfg.ModelID,
		cfg.DisplayName,
		cfg.Provider,
		cfg.IsEnabled,
		cfg.IsFree,
		cfg.MaxTokens,
		cfg.SortOrder,
	).Scan(&cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert model config: %w", err)
	}
	return nil
}

func (r *PostgresModelConfigRepository) list(ctx context.Context, query string) ([]models.ModelConfig, error) {
	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list model configs: %w", err)
	}
	defer rows.Close()

	var configs []models.ModelConfig
	for rows.Next() {
		cfg, err := scanModelConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model config: %w", err)
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model configs: %w", err)
	}
	return configs, nil
}

func scanModelConfig(row pgx.Row) (*models.ModelConfig, error) {
	var c models.ModelConfig
	if err := row.Scan(
		&c.ModelID, &c.DisplayName, &c.Provider, &c.IsEnabled, &c.IsFree,
		&c.MaxTokens, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
