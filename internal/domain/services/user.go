package services

import (
	"context"
	"time"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
)

// UserService manages the caller's own account.
type UserService interface {
	// EnsureUser provisions a FREE account on first sight of a token subject
	EnsureUser(ctx context.Context, userID, email string) error

	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error)

	// GetUsage reports quota state for the current UTC day
	GetUsage(ctx context.Context, userID string) (*UsageStatus, error)
}

// UpdateProfileRequest supports partial updates of the profile
type UpdateProfileRequest struct {
	Name         models.OptionalString
	DefaultModel models.OptionalString
	Theme        *models.Theme
}

// UsageStatus is the caller's quota position
type UsageStatus struct {
	Plan         models.Plan `json:"plan"`
	Used         int         `json:"used"`
	Limit        int         `json:"limit"`     // -1 when the plan has no cap
	Remaining    int         `json:"remaining"` // -1 when the plan has no cap
	UsagePercent float64     `json:"usage_percent"`
	CanSend      bool        `json:"can_send"`
	ResetsAt     time.Time   `json:"resets_at"`
}
