package models

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin marks tokens allowed to use the admin API.
const RoleAdmin = "admin"

// Claims is the JWT payload issued by the web frontend.
type Claims struct {
	jwt.RegisteredClaims        // sub, iss, aud, exp, iat
	Email                string `json:"email"`
	Name                 string `json:"name,omitempty"`
	Role                 string `json:"role,omitempty"` // "user" or "admin"
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}

// IsAdmin reports whether the token carries the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
