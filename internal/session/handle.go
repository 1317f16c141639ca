package session

import (
	"time"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/google/uuid"
)

// Handle is one live browser-automation session bound to one user. A Handle
// is owned by the Pool and lent to exactly one task at a time; the busy flag
// and timestamps are guarded by the pool's mutex, never touched directly by
// borrowers.
type Handle struct {
	id         uuid.UUID
	userID     uuid.UUID
	driver     automation.Driver
	createdAt  time.Time
	lastActive time.Time
	busy       bool
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() uuid.UUID { return h.id }

// UserID returns the identifier of the user the session is authenticated as.
func (h *Handle) UserID() uuid.UUID { return h.userID }

// Driver returns the underlying automation connection. Only valid while the
// handle is lent out busy.
func (h *Handle) Driver() automation.Driver { return h.driver }

// CreatedAt returns the creation timestamp.
func (h *Handle) CreatedAt() time.Time { return h.createdAt }
