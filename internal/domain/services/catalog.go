package services

import (
	"context"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
)

// ModelCatalog exposes the admin-managed model list to chat.
type ModelCatalog interface {
	// ListAvailable returns enabled models ordered by sort order
	ListAvailable(ctx context.Context) ([]ModelInfo, error)

	// Resolve picks the model for a turn. Candidates are tried in order and
	// the first enabled one wins; when none is enabled the system default is
	// returned.
	Resolve(ctx context.Context, candidates ...string) (string, error)
}

// ModelInfo is a catalog entry joined with static capabilities
type ModelInfo struct {
	models.ModelConfig
	Description   string `json:"description,omitempty"`
	ContextWindow int    `json:"context_window"`
}
