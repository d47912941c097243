package auth

import "github.com/sterling9879/Sage-IA/internal/domain/models"

// JWTVerifier checks bearer tokens issued by the web frontend. The API never
// issues tokens.
type JWTVerifier interface {
	// VerifyToken checks signature, expiry and subject and returns the claims.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close stops background JWKS refreshes, if any.
	Close() error
}
