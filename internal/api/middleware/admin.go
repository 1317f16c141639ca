package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/applypilot/applypilot-api/internal/api/shared"
)

// AdminMiddleware guards operational endpoints behind a shared admin key.
// Requests must present the key in the X-Admin-Key header; it is compared
// against a bcrypt hash so the key itself never lives in configuration.
type AdminMiddleware struct {
	keyHash []byte
}

// NewAdminMiddleware creates an AdminMiddleware from the configured bcrypt
// hash. An empty hash disables the admin surface entirely.
func NewAdminMiddleware(keyHash string) *AdminMiddleware {
	return &AdminMiddleware{keyHash: []byte(keyHash)}
}

// Enabled reports whether an admin key hash is configured.
func (m *AdminMiddleware) Enabled() bool {
	return len(m.keyHash) > 0
}

// Require rejects requests that do not carry the correct admin key.
func (m *AdminMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
			return
		}

		key := r.Header.Get("X-Admin-Key")
		if key == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Admin key required")
			return
		}

		if err := bcrypt.CompareHashAndPassword(m.keyHash, []byte(key)); err != nil {
			shared.RespondWithError(w, r, http.StatusForbidden, "Invalid admin key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
