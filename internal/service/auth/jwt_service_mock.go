package auth

import (
	"context"

	"github.com/google/uuid"
)

// MockJWTService is a configurable JWTService double for handler and
// middleware tests.
type MockJWTService struct {
	GenerateTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateTokenFn func(ctx context.Context, tokenString string) (*Claims, error)
}

var _ JWTService = (*MockJWTService)(nil)

func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID)
	}
	return "mock-token", nil
}

func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return nil, ErrInvalidToken
}
