package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applypilot/applypilot-api/internal/failure"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureHandler records every event it receives and optionally errors.
type captureHandler struct {
	events []*FailureEvent
	err    error
}

func (h *captureHandler) HandleFailure(_ context.Context, event *FailureEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func testRecord() failure.Record {
	return failure.Record{
		TaskID:   uuid.New(),
		UserID:   uuid.New(),
		Category: failure.CategoryAuthenticationLost,
		Severity: failure.SeverityHigh,
		Message:  "session cookies rejected",
	}
}

func TestEmitFailureDeliversToAllHandlers(t *testing.T) {
	emitter := NewInMemoryEmitter(discardLogger())
	h1 := &captureHandler{}
	h2 := &captureHandler{}
	emitter.RegisterHandler(h1)
	emitter.RegisterHandler(h2)

	event := NewFailureEvent(testRecord())
	require.NoError(t, emitter.EmitFailure(context.Background(), event))

	require.Len(t, h1.events, 1)
	require.Len(t, h2.events, 1)
	assert.Equal(t, event.ID, h1.events[0].ID)
	assert.Equal(t, event.ID, h2.events[0].ID)
}

func TestEmitFailureContinuesPastHandlerError(t *testing.T) {
	emitter := NewInMemoryEmitter(discardLogger())
	failing := &captureHandler{err: errors.New("sink unavailable")}
	second := &captureHandler{err: errors.New("also broken")}
	healthy := &captureHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(second)
	emitter.RegisterHandler(healthy)

	err := emitter.EmitFailure(context.Background(), NewFailureEvent(testRecord()))

	assert.Equal(t, failing.err, err, "first handler error is returned")
	assert.Len(t, healthy.events, 1, "later handlers still receive the event")
	assert.Len(t, second.events, 1)
}

func TestEmitFailureNoHandlers(t *testing.T) {
	emitter := NewInMemoryEmitter(discardLogger())

	err := emitter.EmitFailure(context.Background(), NewFailureEvent(testRecord()))
	assert.NoError(t, err)
}

func TestReportFailureSwallowsHandlerErrors(t *testing.T) {
	emitter := NewInMemoryEmitter(discardLogger())
	failing := &captureHandler{err: errors.New("sink unavailable")}
	emitter.RegisterHandler(failing)

	// Must not panic or propagate; reporting happens after the task settled.
	emitter.ReportFailure(context.Background(), testRecord())
	assert.Len(t, failing.events, 1)
}

func TestNewFailureEvent(t *testing.T) {
	rec := testRecord()
	event := NewFailureEvent(rec)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, rec, event.Record)
	assert.False(t, event.EmittedAt.IsZero())
}

func TestLogHandler(t *testing.T) {
	h := NewLogHandler(discardLogger())
	assert.NoError(t, h.HandleFailure(context.Background(), NewFailureEvent(testRecord())))
}
