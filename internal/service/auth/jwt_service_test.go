package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applypilot/applypilot-api/internal/config"
)

func newTestService(t *testing.T) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "test-secret-key-that-is-long-enough!",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)
	return svc.(*hmacJWTService)
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "short",
		TokenLifetimeMinutes: 60,
	})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	tokenString, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.ValidateToken(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	// Issue in the past, validate in the present, well beyond clock skew.
	issuedAt := time.Now().Add(-3 * time.Hour)
	svc.timeFunc = func() time.Time { return issuedAt }
	tokenString, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	svc.timeFunc = time.Now
	_, err = svc.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSignature(t *testing.T) {
	svc := newTestService(t)
	other, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "another-secret-key-that-is-long-enough",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	tokenString, err := other.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMalformed(t *testing.T) {
	svc := newTestService(t)

	for _, tokenString := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.ValidateToken(context.Background(), tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q should be rejected", tokenString)
	}
}
