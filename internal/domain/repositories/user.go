package repositories

import (
	"context"

	"github.com/sterling9879/Sage-IA/internal/domain/models"
)

// ListUsersParams selects a page of users for the admin table.
type ListUsersParams struct {
	Search string // matches email or name, case-insensitive
	Page   int
	Limit  int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// EnsureUser inserts a FREE user with the given limit if id is unknown.
	// Existing rows are left untouched.
	EnsureUser(ctx context.Context, id, email string, messagesLimit int) error

	// GetByID returns domain.ErrNotFound if the user does not exist
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateProfile writes name, default_model and theme
	UpdateProfile(ctx context.Context, user *models.User) error

	// UpdateAccount writes plan, messages_limit and is_banned
	UpdateAccount(ctx context.Context, user *models.User) error

	// ReserveMessage charges one message in a single conditional update:
	// UNLIMITED users always pass, FREE and PRO only while messages_used is
	// below messages_limit. It stamps last_active_at and returns the new
	// counter. ok is false when the cap is already reached.
	ReserveMessage(ctx context.Context, id string) (used int, ok bool, err error)

	// RefundMessage takes back one reserved message, never going below zero.
	RefundMessage(ctx context.Context, id string) error

	// ResetUsage sets messages_used to 0 for one user
	ResetUsage(ctx context.Context, id string) error

	// ResetDailyUsage zeroes messages_used for every FREE and PRO user and
	// returns the number of rows changed.
	ResetDailyUsage(ctx context.Context) (int64, error)

	// List returns a page of users and the total match count
	List(ctx context.Context, params ListUsersParams) ([]models.UserListItem, int, error)
}
