package models

import "time"

// ModelConfig is an admin-managed catalog entry for a hosted model.
type ModelConfig struct {
	ModelID     string    `json:"model_id" db:"model_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Provider    string    `json:"provider" db:"provider"`
	IsEnabled   bool      `json:"is_enabled" db:"is_enabled"`
	IsFree      bool      `json:"is_free" db:"is_free"`
	MaxTokens   int       `json:"max_tokens" db:"max_tokens"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
