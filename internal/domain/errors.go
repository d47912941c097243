package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrQuotaExceeded   = errors.New("daily message limit reached")
	ErrInferenceFailed = errors.New("inference failed")
)

// Error kinds returned to clients. Stable strings, safe to switch on.
const (
	KindInvalidInput    = "INVALID_INPUT"
	KindUnauthorized    = "UNAUTHORIZED"
	KindForbidden       = "FORBIDDEN"
	KindNotFound        = "NOT_FOUND"
	KindConflict        = "CONFLICT"
	KindQuotaExceeded   = "QUOTA_EXCEEDED"
	KindInferenceFailed = "INFERENCE_FAILED"
	KindInternal        = "INTERNAL"
)

// ConflictError represents a resource conflict, either a duplicate or a
// resource that is busy (e.g. a conversation with a turn in flight).
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string   { return e.Message }
func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// QuotaExceededError carries the counters the client needs to render the
// remaining allowance.
type QuotaExceededError struct {
	Plan  string
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily message limit reached (%d/%d)", e.Used, e.Limit)
}

func (e *QuotaExceededError) StatusCode() int { return http.StatusTooManyRequests }

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// InferenceError wraps an upstream model failure or timeout.
type InferenceError struct {
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed for model %s: %v", e.Model, e.Err)
}

func (e *InferenceError) Unwrap() error   { return e.Err }
func (e *InferenceError) StatusCode() int { return http.StatusBadGateway }

func (e *InferenceError) Is(target error) bool {
	return target == ErrInferenceFailed
}

// Kind classifies err into one of the client-facing error kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, ErrInferenceFailed):
		return KindInferenceFailed
	default:
		return KindInternal
	}
}

// StatusCode maps err to an HTTP status.
func StatusCode(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}
	switch Kind(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindInferenceFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
