package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageLog records one inference attempt, successful or not. Rows are never
// updated after insert.
type UsageLog struct {
	ID               string          `json:"id" db:"id"`
	UserID           string          `json:"user_id" db:"user_id"`
	ConversationID   *string         `json:"conversation_id,omitempty" db:"conversation_id"`
	Model            string          `json:"model" db:"model"`
	PromptTokens     int             `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int             `json:"total_tokens" db:"total_tokens"`
	EstimatedCost    decimal.Decimal `json:"estimated_cost" db:"estimated_cost"` // cents
	ResponseTimeMs   int             `json:"response_time_ms" db:"response_time_ms"`
	Success          bool            `json:"success" db:"success"`
	ErrorMessage     *string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// AnalyticsOverview is the admin dashboard headline. Day windows are UTC.
type AnalyticsOverview struct {
	TotalUsers         int             `json:"total_users"`
	ActiveUsers24h     int             `json:"active_users_24h"`
	TotalConversations int             `json:"total_conversations"`
	TotalMessages      int             `json:"total_messages"`
	MessagesToday      int             `json:"messages_today"`
	EstimatedCostToday decimal.Decimal `json:"estimated_cost_today"` // cents
	RecentUsers        []User          `json:"recent_users"`
	Activity           []ActivityEvent `json:"activity"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// ActivityType classifies an entry of the admin activity feed.
type ActivityType string

const (
	ActivityUser  ActivityType = "user"
	ActivityInfo  ActivityType = "info"
	ActivityError ActivityType = "error"
)

// ActivityEvent is one line of the admin activity feed: a signup or a usage
// log entry.
type ActivityEvent struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}

// DailyUsage aggregates usage logs for one UTC day.
type DailyUsage struct {
	Date          string          `json:"date"` // YYYY-MM-DD
	Requests      int             `json:"requests"`
	Failures      int             `json:"failures"`
	TotalTokens   int             `json:"total_tokens"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
}

// ModelUsage aggregates usage logs for one model.
type ModelUsage struct {
	Model         string          `json:"model"`
	Requests      int             `json:"requests"`
	TotalTokens   int             `json:"total_tokens"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	Percentage    float64         `json:"percentage"`
}
