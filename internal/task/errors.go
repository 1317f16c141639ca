package task

import "errors"

// Common errors returned by the queue.
var (
	// ErrTaskNotFound is returned by Status and Cancel for unknown task IDs.
	ErrTaskNotFound = errors.New("task not found")

	// ErrQueueFull is returned by Submit when the pending queue is at capacity.
	ErrQueueFull = errors.New("task queue is full")

	// ErrQueueClosed is returned by Submit after the queue has been shut down.
	ErrQueueClosed = errors.New("task queue is closed")

	// ErrUnknownKind is returned by Submit for an unsupported task kind.
	ErrUnknownKind = errors.New("unknown task kind")

	// ErrKindDisabled is returned by Submit for a kind whose backing service
	// is not configured in this deployment.
	ErrKindDisabled = errors.New("task kind disabled")
)
