package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.DefaultModel)
	assert.Equal(t, 6000, cfg.HistoryTokenBudget)
	assert.Equal(t, 50, cfg.FreeMessagesLimit)
	assert.Equal(t, 500, cfg.ProMessagesLimit)
	assert.Equal(t, 60*time.Second, cfg.InferenceTimeout)
	assert.True(t, cfg.Debug)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "PROD")
	t.Setenv("HISTORY_TOKEN_BUDGET", "1200")
	t.Setenv("INFERENCE_TIMEOUT", "15s")
	t.Setenv("TABLE_PREFIX", "custom_")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "custom_", cfg.TablePrefix)
	assert.Equal(t, 1200, cfg.HistoryTokenBudget)
	assert.Equal(t, 15*time.Second, cfg.InferenceTimeout)
	assert.False(t, cfg.Debug)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("HISTORY_TOKEN_BUDGET", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetTablePrefix(t *testing.T) {
	tests := map[string]string{
		"prod":    "prod_",
		"test":    "test_",
		"dev":     "dev_",
		"staging": "dev_",
	}
	for env, want := range tests {
		t.Run(env, func(t *testing.T) {
			assert.Equal(t, want, getTablePrefix(env))
		})
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"sage-2025-01-01T00-00-00.log",
		"sage-2025-01-02T00-00-00.log",
		"sage-2025-01-03T00-00-00.log",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	require.NoError(t, cleanupOldLogs(dir, 2))

	_, err := os.Stat(filepath.Join(dir, names[0]))
	assert.True(t, os.IsNotExist(err), "oldest log should be removed")
	_, err = os.Stat(filepath.Join(dir, names[2]))
	assert.NoError(t, err)
}
