package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	DatabaseURL string `env:"DATABASE_URL"`
	TablePrefix string `env:"TABLE_PREFIX"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
	LogDir      string `env:"LOG_DIR"`
	LogMaxFiles int    `env:"LOG_MAX_FILES" envDefault:"10"`

	// Auth. Tokens are issued by the frontend; the API only verifies them.
	JWTSecret string `env:"JWT_SECRET"`
	JWKSURL   string `env:"JWKS_URL"`

	RedisURL string `env:"REDIS_URL"`

	// Inference
	InferenceProvider string        `env:"INFERENCE_PROVIDER" envDefault:"wavespeed"`
	InferenceTimeout  time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"60s"`
	WaveSpeedAPIKey   string        `env:"WAVESPEED_API_KEY"`
	WaveSpeedBaseURL  string        `env:"WAVESPEED_BASE_URL" envDefault:"https://api.wavespeed.ai/api/v3"`
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	AnthropicAPIKey   string        `env:"ANTHROPIC_API_KEY"`
	LoremDelay        time.Duration `env:"LOREM_DELAY" envDefault:"500ms"`

	// Prompt construction
	DefaultModel       string `env:"DEFAULT_MODEL" envDefault:"google/gemini-2.5-flash"`
	SystemPrompt       string `env:"SYSTEM_PROMPT" envDefault:"You are a helpful and friendly assistant."`
	HistoryTokenBudget int    `env:"HISTORY_TOKEN_BUDGET" envDefault:"6000"`

	// Per-conversation serialization
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"90s"`
	LockWait time.Duration `env:"LOCK_WAIT" envDefault:"5s"`

	// Quotas
	FreeMessagesLimit int  `env:"FREE_MESSAGES_LIMIT" envDefault:"50"`
	ProMessagesLimit  int  `env:"PRO_MESSAGES_LIMIT" envDefault:"500"`
	QuotaResetEnabled bool `env:"QUOTA_RESET_ENABLED" envDefault:"true"`

	// Debug flags
	Debug bool `env:"DEBUG"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Environment = strings.ToLower(cfg.Environment)
	if cfg.TablePrefix == "" {
		cfg.TablePrefix = getTablePrefix(cfg.Environment)
	}
	// DEBUG defaults to on outside of production
	if _, set := os.LookupEnv("DEBUG"); !set {
		cfg.Debug = cfg.Environment != "prod"
	}

	return cfg, nil
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}
