package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/sterling9879/Sage-IA/internal/domain"
)

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("test_")

	assert.Equal(t, "test_users", tables.Users)
	assert.Equal(t, "test_conversations", tables.Conversations)
	assert.Equal(t, "test_messages", tables.Messages)
	assert.Equal(t, "test_usage_logs", tables.UsageLogs)
	assert.Equal(t, "test_model_configs", tables.ModelConfigs)
	assert.Len(t, tables.All(), 5)
}

func TestSchemaStatements_UsePrefix(t *testing.T) {
	stmts := schemaStatements(NewTableNames("dev_"))

	var usageDDL string
	for _, s := range stmts {
		if strings.Contains(s, "CREATE TABLE") {
			assert.Contains(t, s, "dev_")
		}
		if strings.Contains(s, "CREATE TABLE IF NOT EXISTS dev_usage_logs") {
			usageDDL = s
		}
	}

	assert.NotEmpty(t, usageDDL)
	assert.NotContains(t, usageDDL, "REFERENCES")
	assert.Equal(t, "idx_dev_message_conversation_created", indexName("dev_messages", "conversation_created"))
}

func TestNotFoundOr(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{"no rows", pgx.ErrNoRows, true},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, true},
		{"other pg error", &pgconn.PgError{Code: "40001"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NotFoundOr(tt.err, "conversation", "abc", "get conversation")
			assert.Equal(t, tt.wantNotFound, errors.Is(err, domain.ErrNotFound))
		})
	}
}

func TestPgErrorClassifiers(t *testing.T) {
	assert.True(t, IsPgDuplicateError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsPgForeignKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsPgDuplicateError(errors.New("x")))
}
