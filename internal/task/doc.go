// Package task is the asynchronous execution engine: it owns task identity
// and lifecycle, dispatches work to a bounded worker pool, runs each attempt
// against a pooled automation session, and applies failure classification and
// backoff around the attempt. Retry delays are realized as scheduled
// re-entries into the pending queue; a worker never sleeps through a backoff.
package task
