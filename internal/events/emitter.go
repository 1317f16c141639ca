package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/applypilot/applypilot-api/internal/failure"
)

// InMemoryEmitter is a simple Emitter that stores registered handlers in
// memory and dispatches events to all of them.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "failure_emitter"),
	}
}

// RegisterHandler adds a handler to receive future events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered failure handler", "handler_count", len(e.handlers))
}

// EmitFailure publishes the event to every registered handler. A failing
// handler does not prevent delivery to the rest; the first error encountered
// is returned.
func (e *InMemoryEmitter) EmitFailure(ctx context.Context, event *FailureEvent) error {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for failure event",
			"event_id", event.ID,
			"task_id", event.Record.TaskID)
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleFailure(ctx, event); err != nil {
			e.logger.Error("failure handler errored",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"task_id", event.Record.TaskID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ReportFailure implements the engine's reporting interface by wrapping the
// record in an event and emitting it. Emission errors are logged; reporting
// is never allowed to fail a task that already settled.
func (e *InMemoryEmitter) ReportFailure(ctx context.Context, rec failure.Record) {
	if err := e.EmitFailure(ctx, NewFailureEvent(rec)); err != nil {
		e.logger.Error("failed to report task failure",
			"task_id", rec.TaskID,
			"error", err)
	}
}

// LogHandler is the default reporting handler: it writes every terminal
// failure to the structured log.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger.With("component", "failure_log")}
}

// HandleFailure implements Handler.
func (h *LogHandler) HandleFailure(ctx context.Context, event *FailureEvent) error {
	rec := event.Record
	h.logger.Error("task failed",
		"task_id", rec.TaskID,
		"category", string(rec.Category),
		"severity", string(rec.Severity),
		"message", rec.Message,
		"snapshot", rec.Snapshot)
	return nil
}

var (
	_ Emitter = (*InMemoryEmitter)(nil)
	_ Handler = (*LogHandler)(nil)
)
