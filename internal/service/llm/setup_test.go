package llm

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sterling9879/Sage-IA/internal/config"
)

func TestSetupProvider(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{name: "wavespeed", cfg: config.Config{InferenceProvider: "wavespeed", WaveSpeedAPIKey: "k"}, wantName: "wavespeed"},
		{name: "openai", cfg: config.Config{InferenceProvider: "OpenAI", OpenAIAPIKey: "k"}, wantName: "openai"},
		{name: "anthropic", cfg: config.Config{InferenceProvider: "anthropic", AnthropicAPIKey: "k"}, wantName: "anthropic"},
		{name: "lorem", cfg: config.Config{InferenceProvider: "lorem", Environment: "dev"}, wantName: "lorem"},
		{name: "lorem in prod", cfg: config.Config{InferenceProvider: "lorem", Environment: "prod"}, wantErr: true},
		{name: "missing key", cfg: config.Config{InferenceProvider: "wavespeed"}, wantErr: true},
		{name: "unknown", cfg: config.Config{InferenceProvider: "bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := SetupProvider(&tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}
