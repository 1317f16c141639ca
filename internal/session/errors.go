package session

import "errors"

var (
	// ErrResourceExhausted is returned by Acquire when no idle handle exists
	// and creating one would break the per-user or global cap. Acquire never
	// blocks waiting for capacity; callers decide whether to retry later.
	ErrResourceExhausted = errors.New("session capacity exhausted")

	// ErrPoolClosed is returned by Acquire after the pool has been shut down.
	ErrPoolClosed = errors.New("session pool closed")
)
