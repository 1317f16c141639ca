package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/applypilot/applypilot-api/internal/api/middleware"
)

func TestAdminRequire(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		keyHash    string
		adminKey   string
		wantStatus int
	}{
		{name: "valid key", keyHash: string(hash), adminKey: "letmein", wantStatus: http.StatusOK},
		{name: "wrong key", keyHash: string(hash), adminKey: "guess", wantStatus: http.StatusForbidden},
		{name: "missing key", keyHash: string(hash), adminKey: "", wantStatus: http.StatusUnauthorized},
		{name: "admin surface disabled", keyHash: "", adminKey: "letmein", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := middleware.NewAdminMiddleware(tt.keyHash)

			req := httptest.NewRequest(http.MethodGet, "/api/admin/pool", nil)
			if tt.adminKey != "" {
				req.Header.Set("X-Admin-Key", tt.adminKey)
			}
			w := httptest.NewRecorder()
			m.Require(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
