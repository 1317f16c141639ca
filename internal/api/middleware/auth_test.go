package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applypilot/applypilot-api/internal/api/middleware"
	"github.com/applypilot/applypilot-api/internal/service/auth"
)

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()

	jwtService := &auth.MockJWTService{
		ValidateTokenFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			switch tokenString {
			case "valid-token":
				return &auth.Claims{UserID: userID}, nil
			case "expired-token":
				return nil, auth.ErrExpiredToken
			default:
				return nil, auth.ErrInvalidToken
			}
		},
	}
	m := middleware.NewAuthMiddleware(jwtService)

	var gotUserID uuid.UUID
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = middleware.GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid token", authHeader: "Bearer valid-token", wantStatus: http.StatusOK},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic valid-token", wantStatus: http.StatusUnauthorized},
		{name: "no token", authHeader: "Bearer", wantStatus: http.StatusUnauthorized},
		{name: "expired token", authHeader: "Bearer expired-token", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", authHeader: "Bearer garbage", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOK = false

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			m.Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				require.True(t, gotOK, "user ID should be in context")
				assert.Equal(t, userID, gotUserID)
			} else {
				assert.False(t, gotOK, "handler should not have run")
			}
		})
	}
}
