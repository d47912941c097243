package providers

import (
	"context"
	"log/slog"
	"time"

	"resty.dev/v3"
)

type startedAtKey struct{}

// NewRestClient returns a resty client that logs every exchange at debug
// level. Request and response bodies are never logged since they carry
// user content.
func NewRestClient(name, baseURL string, logger *slog.Logger) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "Sage-IA/1.0")

	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), startedAtKey{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		startedAt, _ := r.Request.Context().Value(startedAtKey{}).(time.Time)
		logger.Debug("inference http exchange",
			"client", name,
			"method", r.Request.Method,
			"url", r.Request.URL,
			"status", r.StatusCode(),
			"latency_ms", time.Since(startedAt).Milliseconds(),
		)
		return nil
	})
	return client
}
