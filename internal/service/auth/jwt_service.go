package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for issuing and verifying the signed
// credentials that identify callers across services.
//
// Verification requires no network I/O and no shared database: any service
// holding the signing key can validate a presented token locally, which
// keeps the issuing service out of the critical path of every authorized
// request.
type JWTService interface {
	// GenerateToken creates a signed JWT access token bound to the user.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken validates the provided token string and extracts the
	// claims. Verification order is structure, then signature, then expiry;
	// the first failure short-circuits and no claim data is returned.
	// Returns ErrExpiredToken for a token past its expiry and
	// ErrInvalidToken for malformed tokens and signature mismatches.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the verified claim set extracted from a token.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
