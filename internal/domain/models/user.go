package models

import "time"

// Plan is the subscription tier. It decides the daily message quota and the
// per-message output token ceiling.
type Plan string

const (
	PlanFree      Plan = "FREE"
	PlanPro       Plan = "PRO"
	PlanUnlimited Plan = "UNLIMITED"
)

// Plans lists every valid plan, in upgrade order.
var Plans = []Plan{PlanFree, PlanPro, PlanUnlimited}

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanUnlimited:
		return true
	default:
		return false
	}
}

// Theme is the UI theme preference stored on the profile.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// User is an authenticated account with its quota counters.
type User struct {
	ID            string     `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	Name          *string    `json:"name,omitempty" db:"name"`
	Plan          Plan       `json:"plan" db:"plan"`
	MessagesUsed  int        `json:"messages_used" db:"messages_used"`
	MessagesLimit int        `json:"messages_limit" db:"messages_limit"`
	IsBanned      bool       `json:"is_banned" db:"is_banned"`
	DefaultModel  *string    `json:"default_model,omitempty" db:"default_model"`
	Theme         Theme      `json:"theme" db:"theme"`
	LastActiveAt  *time.Time `json:"last_active_at,omitempty" db:"last_active_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// UserListItem is a user row as shown in the admin user table.
type UserListItem struct {
	User
	ConversationCount int `json:"conversation_count"`
	TotalMessages     int `json:"total_messages"`
}
