package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/config"
)

// DefaultJWTConfig returns a standard configuration for JWT authentication
// suitable for testing. This is the single source of truth for JWT test config.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "test-jwt-secret-that-is-32-chars-long",
		TokenLifetimeMinutes: 30,
	}
}

// NewTestJWTService creates a JWT service with the given secret, lifetime,
// and clock. The injectable clock makes expiry behavior deterministic in
// tests.
func NewTestJWTService(secret string, lifetime time.Duration, timeFunc func() time.Time) JWTService {
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		timeFunc:      timeFunc,
	}
}

// GenerateTokenForTesting creates a JWT token for the specified user ID using
// the default test configuration.
func GenerateTokenForTesting(userID uuid.UUID) (string, error) {
	svc, err := NewJWTService(DefaultJWTConfig())
	if err != nil {
		return "", fmt.Errorf("failed to create JWT service: %w", err)
	}
	return svc.GenerateToken(context.Background(), userID)
}

// GenerateAuthHeaderForTesting creates an Authorization header value with
// Bearer prefix containing a valid JWT token for the specified user ID.
func GenerateAuthHeaderForTesting(userID uuid.UUID) (string, error) {
	token, err := GenerateTokenForTesting(userID)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}
