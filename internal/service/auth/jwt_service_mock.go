package auth

import (
	"context"

	"github.com/google/uuid"
)

// MockJWTService is a mock implementation of the JWTService interface for
// testing. This is the single canonical mock implementation to be used in
// all tests.
type MockJWTService struct {
	GenerateTokenFunc func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)
}

// Ensure MockJWTService implements JWTService interface
var _ JWTService = (*MockJWTService)(nil)

// GenerateToken calls the configured GenerateTokenFunc, or returns a static
// token when none is configured.
func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, userID)
	}
	return "mock-token-" + userID.String(), nil
}

// ValidateToken calls the configured ValidateTokenFunc, or fails with
// ErrInvalidToken when none is configured.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	return nil, ErrInvalidToken
}
