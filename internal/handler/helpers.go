package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses carrying a stable
// kind. Internal errors are logged and reported with a generic message.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := domain.Kind(err)
	status := domain.StatusCode(err)
	extras := map[string]interface{}{"kind": kind}

	detail := err.Error()
	var quotaErr *domain.QuotaExceededError
	var inferenceErr *domain.InferenceError

	switch {
	case errors.As(err, &quotaErr):
		extras["used"] = quotaErr.Used
		extras["limit"] = quotaErr.Limit
		extras["plan"] = quotaErr.Plan
	case errors.As(err, &inferenceErr):
		logger.Warn("inference failed", "model", inferenceErr.Model, "error", inferenceErr.Err)
		detail = "the model did not return a response, please try again"
	case kind == domain.KindInternal:
		logger.Error("internal error", "error", err)
		detail = "internal server error"
	}

	httputil.RespondErrorWithExtras(w, status, detail, extras)
}

// respondInvalid writes a 400 with the INVALID_INPUT kind
func respondInvalid(w http.ResponseWriter, detail string) {
	httputil.RespondErrorWithExtras(w, http.StatusBadRequest, detail,
		map[string]interface{}{"kind": domain.KindInvalidInput})
}

// PathParam extracts a required chi URL parameter, writing a 400 when it is
// missing.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		respondInvalid(w, label+" is required")
		return "", false
	}
	return value, true
}
