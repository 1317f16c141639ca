package api

import (
	"net/http"

	"github.com/applypilot/applypilot-api/internal/api/shared"
	"github.com/applypilot/applypilot-api/internal/session"
)

// PoolHandler serves the admin view of the session pool.
type PoolHandler struct {
	pool *session.Pool
}

// NewPoolHandler creates a new PoolHandler with the given dependencies.
func NewPoolHandler(pool *session.Pool) *PoolHandler {
	return &PoolHandler{pool: pool}
}

// Stats handles GET /api/admin/pool.
func (h *PoolHandler) Stats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, newPoolStatsResponse(h.pool.Stats()))
}
