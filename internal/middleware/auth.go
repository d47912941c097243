package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sterling9879/Sage-IA/internal/auth"
	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/httputil"
)

// UserProvisioner creates the local account for a token subject on first use.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, userID, email string) error
}

// Auth verifies the bearer token, provisions the user and stores the claims
// in the request context.
func Auth(verifier auth.JWTVerifier, users UserProvisioner, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				respondUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				respondUnauthorized(w, "invalid or expired token")
				return
			}

			if err := users.EnsureUser(r.Context(), claims.GetUserID(), claims.Email); err != nil {
				logger.Error("failed to provision user", "user_id", claims.GetUserID(), "error", err)
				httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error",
					map[string]interface{}{"kind": domain.KindInternal})
				return
			}

			next.ServeHTTP(w, httputil.WithClaims(r, claims))
		})
	}
}

// RequireAdmin rejects callers whose token lacks the admin role. Must run
// after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := httputil.GetClaims(r)
		if claims == nil {
			respondUnauthorized(w, "authentication required")
			return
		}
		if !claims.IsAdmin() {
			httputil.RespondErrorWithExtras(w, http.StatusForbidden, "admin role required",
				map[string]interface{}{"kind": domain.KindForbidden})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	httputil.RespondErrorWithExtras(w, http.StatusUnauthorized, detail,
		map[string]interface{}{"kind": domain.KindUnauthorized})
}
