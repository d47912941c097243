package config

const (
	// MaxConversationTitleLength is the maximum length for conversation titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxConversationTitleLength = 255

	// AutoTitleLength is the length of titles derived from the first message.
	AutoTitleLength = 50

	// MaxMessageLength caps a single user message. Larger messages would be
	// excluded from the prompt window anyway.
	MaxMessageLength = 100_000

	// MaxUserNameLength is the maximum length for profile display names.
	MaxUserNameLength = 100

	// DefaultPageSize and MaxPageSize bound list endpoints.
	DefaultPageSize = 20
	MaxPageSize     = 100

	// DailyUsageDays is the default window for the admin daily usage series.
	DailyUsageDays = 7
	// MaxDailyUsageDays bounds the daily series query.
	MaxDailyUsageDays = 90
	// ModelUsageDays is the default window for the per-model breakdown.
	ModelUsageDays = 30

	// RecentUsersShown is the length of the dashboard's newest-users list.
	RecentUsersShown = 5
	// The activity feed merges the newest signups and usage rows and keeps
	// the ActivityFeedLength newest entries.
	ActivityFeedUsers  = 3
	ActivityFeedLogs   = 5
	ActivityFeedLength = 5
)
