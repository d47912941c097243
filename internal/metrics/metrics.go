package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	// HTTP
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sage",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	// Chat turns by kind (send, regenerate, edit) and outcome
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns",
		},
		[]string{"kind", "status"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sage",
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Inference call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider", "model", "status"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "inference",
			Name:      "tokens_total",
			Help:      "Tokens billed per model and direction",
		},
		[]string{"model", "direction"},
	)

	EstimatedCostCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "inference",
			Name:      "estimated_cost_cents_total",
			Help:      "Estimated inference cost in US cents",
		},
		[]string{"model"},
	)

	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "quota",
			Name:      "rejections_total",
			Help:      "Turns rejected by the daily message quota",
		},
		[]string{"plan"},
	)

	// Current message did not fit the history budget
	PromptCurrentDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "prompt",
			Name:      "current_message_dropped_total",
			Help:      "Prompts built without the triggering message because it exceeded the budget",
		},
	)

	QuotaResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sage",
			Subsystem: "quota",
			Name:      "daily_resets_total",
			Help:      "Users whose daily counter was reset by the scheduler",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordTurn records the outcome of a chat turn
func RecordTurn(kind, status string) {
	TurnsTotal.WithLabelValues(kind, status).Inc()
}

// RecordInference records one provider call
func RecordInference(provider, model, status string, durationSec float64) {
	InferenceDuration.WithLabelValues(provider, model, status).Observe(durationSec)
}

// RecordUsage records billed tokens and cost for a successful turn
func RecordUsage(model string, promptTokens, completionTokens int, cost decimal.Decimal) {
	TokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	TokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	cents, _ := cost.Float64()
	EstimatedCostCents.WithLabelValues(model).Add(cents)
}

// RecordQuotaRejection records a turn refused for quota
func RecordQuotaRejection(plan string) {
	QuotaRejections.WithLabelValues(plan).Inc()
}
