package events

import (
	"context"
	"time"

	"github.com/applypilot/applypilot-api/internal/failure"
	"github.com/google/uuid"
)

// FailureEvent wraps a terminal failure record for distribution to handlers.
type FailureEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Record is the classified terminal failure.
	Record failure.Record `json:"record"`

	// EmittedAt is when the event was created.
	EmittedAt time.Time `json:"emitted_at"`
}

// NewFailureEvent creates a FailureEvent for the given record.
func NewFailureEvent(rec failure.Record) *FailureEvent {
	return &FailureEvent{
		ID:        uuid.New(),
		Record:    rec,
		EmittedAt: time.Now().UTC(),
	}
}

// Handler reacts to failure events. Handlers must tolerate concurrent calls.
type Handler interface {
	// HandleFailure processes the event. Returning an error does not stop
	// delivery to other handlers.
	HandleFailure(ctx context.Context, event *FailureEvent) error
}

// Emitter publishes failure events to registered handlers.
type Emitter interface {
	EmitFailure(ctx context.Context, event *FailureEvent) error
}
