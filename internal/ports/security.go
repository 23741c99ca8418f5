package ports

import (
	"time"

	"github.com/google/uuid"
)

// AuthClaims is the verified identity attached to a request. Identity is
// issued elsewhere; this service only verifies tokens and trusts the claims.
type AuthClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Superuser bool      `json:"superuser"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenVerifier parses and validates bearer tokens from the identity service.
type TokenVerifier interface {
	ParseAndValidate(token string) (AuthClaims, error)
}
