package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements returns the idempotent DDL for every table. usage_logs has
// no foreign keys: rows outlive the users and conversations they reference.
func schemaStatements(t *TableNames) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS ` + t.Users + ` (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT,
			plan TEXT NOT NULL DEFAULT 'FREE' CHECK (plan IN ('FREE', 'PRO', 'UNLIMITED')),
			messages_used INTEGER NOT NULL DEFAULT 0 CHECK (messages_used >= 0),
			messages_limit INTEGER NOT NULL DEFAULT 0,
			is_banned BOOLEAN NOT NULL DEFAULT FALSE,
			default_model TEXT,
			theme TEXT NOT NULL DEFAULT 'system',
			last_active_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Conversations + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id TEXT NOT NULL REFERENCES ` + t.Users + `(id) ON DELETE CASCADE,
			model TEXT NOT NULL,
			title VARCHAR(255),
			is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
			is_archived BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + indexName(t.Conversations, "user_list") + `
			ON ` + t.Conversations + ` (user_id, is_archived, is_pinned DESC, updated_at DESC)`,

		`CREATE TABLE IF NOT EXISTS ` + t.Messages + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			conversation_id UUID NOT NULL REFERENCES ` + t.Conversations + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL CHECK (role IN ('USER', 'ASSISTANT', 'SYSTEM')),
			content TEXT NOT NULL,
			model TEXT,
			prompt_tokens INTEGER,
			completion_tokens INTEGER,
			is_edited BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + indexName(t.Messages, "conversation_created") + `
			ON ` + t.Messages + ` (conversation_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS ` + t.UsageLogs + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id TEXT NOT NULL,
			conversation_id UUID,
			model TEXT NOT NULL,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			estimated_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
			response_time_ms INTEGER NOT NULL DEFAULT 0,
			success BOOLEAN NOT NULL,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + indexName(t.UsageLogs, "created") + `
			ON ` + t.UsageLogs + ` (created_at)`,

		`CREATE TABLE IF NOT EXISTS ` + t.ModelConfigs + ` (
			model_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			provider TEXT NOT NULL,
			is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			is_free BOOLEAN NOT NULL DEFAULT FALSE,
			max_tokens INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

func indexName(table, suffix string) string {
	return "idx_" + strings.TrimSuffix(table, "s") + "_" + suffix
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, stmt := range schemaStatements(tables) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema statement: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table of the environment, children first.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
	}
	return nil
}
