package task

import (
	"container/heap"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/applypilot/applypilot-api/internal/failure"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// QueueConfig holds configuration for the task queue.
type QueueConfig struct {
	// QueueSize is the buffer size of the pending channel.
	QueueSize int

	// FlushSpec is the cron spec driving the delayed-retry flush.
	// Defaults to every second.
	FlushSpec string

	// DisabledKinds lists kinds rejected at submission because their backing
	// service is not configured (e.g. resume tailoring without an API key).
	DisabledKinds []Kind
}

// DefaultQueueConfig returns a QueueConfig with reasonable defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		QueueSize: 256,
		FlushSpec: "@every 1s",
	}
}

// Queue owns task identity and lifecycle. Submission is decoupled from
// execution: Submit appends to a buffered FIFO channel the worker pool drains,
// and retries park in a delayed heap that a cron-driven flush moves back into
// the channel once due.
type Queue struct {
	cfg     QueueConfig
	logger  *slog.Logger
	store   RecordStore // nil disables persistence
	metrics Metrics

	mu      sync.Mutex
	tasks   map[uuid.UUID]*Task
	delayed delayedHeap
	closed  bool

	pending chan *Task
	cron    *cron.Cron
}

// NewQueue creates a task queue. Call Start to run the delayed-retry flush.
// store may be nil when restart-durable status queries are not required.
func NewQueue(cfg QueueConfig, store RecordStore, metrics Metrics, logger *slog.Logger) *Queue {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueConfig().QueueSize
	}
	if cfg.FlushSpec == "" {
		cfg.FlushSpec = DefaultQueueConfig().FlushSpec
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Queue{
		cfg:     cfg,
		logger:  logger.With("component", "task_queue"),
		store:   store,
		metrics: metrics,
		tasks:   make(map[uuid.UUID]*Task),
		pending: make(chan *Task, cfg.QueueSize),
		cron:    cron.New(),
	}
}

// Start launches the delayed-retry flush scheduler.
func (q *Queue) Start() error {
	if _, err := q.cron.AddFunc(q.cfg.FlushSpec, func() {
		q.flushDue(time.Now())
	}); err != nil {
		return fmt.Errorf("failed to schedule delayed-retry flush: %w", err)
	}
	q.cron.Start()
	return nil
}

// Stop halts the flush scheduler and rejects further submissions. Tasks
// already in the pending channel remain consumable so workers can drain.
func (q *Queue) Stop() {
	ctx := q.cron.Stop()
	<-ctx.Done()

	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.logger.Info("task queue stopped")
}

// Submit creates a task in pending state, records it in the tracking table,
// persists the initial snapshot, and enqueues it for dispatch. Returns the
// assigned task ID without waiting for execution.
func (q *Queue) Submit(
	ctx context.Context,
	kind Kind,
	userID uuid.UUID,
	payload json.RawMessage,
) (uuid.UUID, error) {
	if !ValidKind(kind) {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	for _, disabled := range q.cfg.DisabledKinds {
		if kind == disabled {
			return uuid.Nil, fmt.Errorf("%w: %q", ErrKindDisabled, kind)
		}
	}

	t := newTask(kind, userID, payload)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return uuid.Nil, ErrQueueClosed
	}
	q.tasks[t.id] = t
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.SaveTask(ctx, t.Snapshot()); err != nil {
			q.forget(t.id)
			return uuid.Nil, fmt.Errorf("failed to save task: %w", err)
		}
	}

	select {
	case q.pending <- t:
	default:
		q.forget(t.id)
		// The snapshot saved above would otherwise linger as an orphaned
		// pending row the engine will never dispatch.
		if q.store != nil {
			if err := q.store.DeleteTask(ctx, t.id); err != nil {
				q.logger.Error("failed to delete task record after enqueue failure",
					"task_id", t.id,
					"error", err)
			}
		}
		return uuid.Nil, fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.pending))
	}

	q.metrics.TaskSubmitted(kind)
	q.logger.Debug("task submitted",
		"task_id", t.id,
		"task_kind", kind,
		"user_id", userID,
		"queue_len", len(q.pending))
	return t.id, nil
}

// Status returns a snapshot of the task, or ErrTaskNotFound.
func (q *Queue) Status(taskID uuid.UUID) (Snapshot, error) {
	q.mu.Lock()
	t, ok := q.tasks[taskID]
	q.mu.Unlock()
	if !ok {
		return Snapshot{}, ErrTaskNotFound
	}
	return t.Snapshot(), nil
}

// Cancel requests cooperative cancellation. A still-pending task transitions
// to cancelled immediately; a running task observes the flag at its next
// attempt boundary. Cancelling an already terminal task is a no-op.
func (q *Queue) Cancel(ctx context.Context, taskID uuid.UUID) error {
	q.mu.Lock()
	t, ok := q.tasks[taskID]
	q.mu.Unlock()
	if !ok {
		return ErrTaskNotFound
	}

	t.RequestCancel()

	// Pending tasks never started; settle them now. The worker that later
	// drains the channel entry sees the terminal state and skips it.
	if snap := t.Snapshot(); snap.Status == StatusPending {
		q.finish(ctx, t, StatusCancelled, nil, nil)
	}

	q.logger.Info("task cancellation requested", "task_id", taskID)
	return nil
}

// ScheduleRetry parks a task until its backoff delay elapses, then the flush
// returns it to the pending channel. The task stays in running state across
// the gap; attempt counting resumes when a worker picks it back up.
func (q *Queue) ScheduleRetry(t *Task, delay time.Duration) {
	readyAt := time.Now().Add(delay)

	q.mu.Lock()
	heap.Push(&q.delayed, &delayedTask{task: t, readyAt: readyAt})
	q.mu.Unlock()

	q.logger.Debug("retry scheduled",
		"task_id", t.id,
		"delay", delay.String(),
		"ready_at", readyAt.UTC().Format(time.RFC3339))
}

// Dispatch returns the channel workers consume pending tasks from.
func (q *Queue) Dispatch() <-chan *Task {
	return q.pending
}

// finish settles a task into a terminal state, persists the final snapshot,
// and bumps completion metrics. Safe to call at most once per task; repeat
// calls on a terminal task are ignored.
func (q *Queue) finish(
	ctx context.Context,
	t *Task,
	status Status,
	result json.RawMessage,
	rec *failure.Record,
) {
	if !t.finalize(status, result, rec) {
		return
	}
	q.metrics.TaskFinished(t.kind, status)
	q.persist(ctx, t)
}

// markRunning persists the pending → running edge.
func (q *Queue) markRunning(ctx context.Context, t *Task) {
	q.persist(ctx, t)
}

// persist writes the task's current snapshot through the record store.
// Persistence failures are logged, never propagated; the tracking table is
// authoritative for live queries.
func (q *Queue) persist(ctx context.Context, t *Task) {
	if q.store == nil {
		return
	}
	if err := q.store.UpdateTask(ctx, t.Snapshot()); err != nil {
		q.logger.Error("failed to persist task snapshot",
			"task_id", t.id,
			"error", err)
	}
}

// forget drops a task from the tracking table after a failed submission.
func (q *Queue) forget(taskID uuid.UUID) {
	q.mu.Lock()
	delete(q.tasks, taskID)
	q.mu.Unlock()
}

// flushDue moves every delayed task whose delay has elapsed back into the
// pending channel. If the channel is full the task stays parked and is
// retried on the next flush.
func (q *Queue) flushDue(now time.Time) {
	for {
		q.mu.Lock()
		if q.delayed.Len() == 0 || q.delayed[0].readyAt.After(now) {
			q.mu.Unlock()
			return
		}
		dt := heap.Pop(&q.delayed).(*delayedTask)
		q.mu.Unlock()

		select {
		case q.pending <- dt.task:
		default:
			q.mu.Lock()
			heap.Push(&q.delayed, dt)
			q.mu.Unlock()
			q.logger.Warn("pending queue full, delayed task deferred",
				"task_id", dt.task.id)
			return
		}
	}
}

