package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sterling9879/Sage-IA/internal/domain"
	"github.com/sterling9879/Sage-IA/internal/domain/models"
)

// Verifier implements JWTVerifier with either a shared HS256 secret or keys
// fetched from a JWKS endpoint.
type Verifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier builds a verifier. jwksURL wins when both are set: the
// frontend's identity provider signs with RS256/ES256 keys it rotates.
func NewJWTVerifier(secret, jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	switch {
	case jwksURL != "":
		// keyfunc v3 refreshes keys in the background until ctx is cancelled
		ctx, cancel := context.WithCancel(context.Background())
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create JWKS client: %w", err)
		}
		logger.Info("JWT verifier initialized", "mode", "jwks", "jwks_url", jwksURL)
		return &Verifier{
			keyfunc: jwks.Keyfunc,
			methods: []string{"RS256", "ES256"},
			cancel:  cancel,
			logger:  logger,
		}, nil

	case secret != "":
		logger.Info("JWT verifier initialized", "mode", "hs256")
		return NewHMACVerifier([]byte(secret), logger), nil

	default:
		return nil, errors.New("either JWT_SECRET or JWKS_URL must be set")
	}
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret []byte, logger *slog.Logger) *Verifier {
	return &Verifier{
		keyfunc: func(*jwt.Token) (interface{}, error) { return secret, nil },
		methods: []string{"HS256"},
		logger:  logger,
	}
}

// VerifyToken validates a JWT token and extracts its claims.
// Returns an error if the token is invalid, expired, or has incorrect claims.
func (v *Verifier) VerifyToken(tokenString string) (*models.Claims, error) {
	// WithValidMethods prevents algorithm confusion between the HMAC and
	// public key modes.
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, v.keyfunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the background JWKS refresh, if any.
func (v *Verifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	return nil
}
