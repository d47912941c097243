package repositories

import (
	"context"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
)

// ModelConfigRepository defines the interface for the model catalog
type ModelConfigRepository interface {
	// ListEnabled returns enabled models ordered by sort_order
	ListEnabled(ctx context.Context) ([]models.ModelConfig, error)

	// ListAll returns every model ordered by sort_order
	ListAll(ctx context.Context) ([]models.ModelConfig, error)

	// Get returns domain.ErrNotFound for unknown model ids
	Get(ctx context.Context, modelID string) (*models.ModelConfig, error)

	// Upsert inserts or replaces the entry keyed by ModelID
	Upsert(ctx context.Context, cfg *models.ModelConfig) error
}
