package task

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/applypilot/applypilot-api/internal/failure"
	"github.com/google/uuid"
)

// Status represents the current state of a task.
type Status string

// Task lifecycle states. A task moves pending → running and from running to
// exactly one terminal state. Running re-enters itself across retry attempts.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether s is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Kind identifies the automation work a task performs.
type Kind string

// Supported task kinds.
const (
	KindSearch         Kind = "search"
	KindApply          Kind = "apply"
	KindGenerateResume Kind = "generate_resume"
)

// ValidKind reports whether k names a supported task kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindSearch, KindApply, KindGenerateResume:
		return true
	}
	return false
}

// SearchPayload is the submission payload for KindSearch.
type SearchPayload struct {
	Criteria automation.SearchCriteria `json:"criteria" validate:"required"`
}

// ApplyPayload is the submission payload for KindApply.
type ApplyPayload struct {
	Job    automation.JobRef    `json:"job"    validate:"required"`
	Resume automation.ResumeRef `json:"resume" validate:"required"`
}

// GenerateResumePayload is the submission payload for KindGenerateResume.
type GenerateResumePayload struct {
	Job automation.JobRef `json:"job" validate:"required"`
}

// Task is one unit of asynchronous automation work. Mutable fields are
// guarded by mu and mutated only through the package's lifecycle methods:
// the executing worker drives state and attempts, the cancellation API
// touches only the cancel flag.
type Task struct {
	id          uuid.UUID
	kind        Kind
	userID      uuid.UUID
	payload     json.RawMessage
	submittedAt time.Time

	cancel atomic.Bool

	mu        sync.Mutex
	status    Status
	attempts  int
	result    json.RawMessage
	failure   *failure.Record
	updatedAt time.Time
}

func newTask(kind Kind, userID uuid.UUID, payload json.RawMessage) *Task {
	now := time.Now().UTC()
	return &Task{
		id:          uuid.New(),
		kind:        kind,
		userID:      userID,
		payload:     payload,
		submittedAt: now,
		status:      StatusPending,
		updatedAt:   now,
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() uuid.UUID { return t.id }

// Kind returns the task kind.
func (t *Task) Kind() Kind { return t.kind }

// UserID returns the submitting user's identifier.
func (t *Task) UserID() uuid.UUID { return t.userID }

// Payload returns the raw submission payload.
func (t *Task) Payload() json.RawMessage { return t.payload }

// RequestCancel sets the cancellation flag. The flag is observed at the next
// attempt boundary; an in-flight automation step is never interrupted.
func (t *Task) RequestCancel() { t.cancel.Store(true) }

// CancelRequested reports whether cancellation has been requested.
func (t *Task) CancelRequested() bool { return t.cancel.Load() }

// beginAttempt moves the task into running (idempotently across retries) and
// increments the attempt counter, returning the new 1-based attempt number.
// A task that already settled — cancelled between dequeue and dispatch —
// refuses the attempt: terminal states are never re-entered.
func (t *Task) beginAttempt() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return 0, false
	}
	t.status = StatusRunning
	t.attempts++
	t.updatedAt = time.Now().UTC()
	return t.attempts, true
}

// finalize moves the task into a terminal state. Once terminal a task never
// transitions again; late finalize calls are ignored.
func (t *Task) finalize(status Status, result json.RawMessage, rec *failure.Record) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return false
	}
	t.status = status
	t.result = result
	t.failure = rec
	t.updatedAt = time.Now().UTC()
	return true
}

// Snapshot is a point-in-time copy of a task for status queries and
// persistence. Result is present only on success, Failure only on failure.
type Snapshot struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	UserID      uuid.UUID       `json:"user_id"`
	Status      Status          `json:"status"`
	Attempts    int             `json:"attempts"`
	Result      json.RawMessage `json:"result,omitempty"`
	Failure     *failure.Record `json:"failure,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Snapshot returns a consistent copy of the task's current state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ID:          t.id,
		Kind:        t.kind,
		UserID:      t.userID,
		Status:      t.status,
		Attempts:    t.attempts,
		Result:      t.result,
		Failure:     t.failure,
		SubmittedAt: t.submittedAt,
		UpdatedAt:   t.updatedAt,
	}
}

// RecordStore persists task snapshots so status queries can survive a
// process restart. Persistence is best-effort; the in-memory tracking table
// remains the source of truth for live queries.
type RecordStore interface {
	// SaveTask inserts the initial snapshot of a newly submitted task.
	SaveTask(ctx context.Context, snap Snapshot) error

	// UpdateTask persists a task's current snapshot.
	UpdateTask(ctx context.Context, snap Snapshot) error

	// DeleteTask removes a persisted record after a failed submission.
	// Deleting a missing record is not an error.
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
}

// FailureReporter is the sink terminal failure records are surfaced to.
type FailureReporter interface {
	ReportFailure(ctx context.Context, rec failure.Record)
}

// Metrics receives engine-level counters. Implemented by the prometheus
// collectors; a no-op implementation is used when metrics are disabled.
type Metrics interface {
	TaskSubmitted(kind Kind)
	TaskFinished(kind Kind, status Status)
	RetryScheduled(category failure.Category)
}

// NopMetrics is a Metrics implementation that discards everything.
type NopMetrics struct{}

func (NopMetrics) TaskSubmitted(Kind)              {}
func (NopMetrics) TaskFinished(Kind, Status)       {}
func (NopMetrics) RetryScheduled(failure.Category) {}
