package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

// Recovery turns handler panics into a 500 problem response. Aborted
// handlers keep panicking so net/http can drop the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("panic recovered",
					"error", rec,
					"request_id", chimw.GetReqID(r.Context()),
					"route", routePattern(r),
					"method", r.Method,
					"stack", string(debug.Stack()),
				)
				httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error",
					map[string]interface{}{"kind": domain.KindInternal})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
