package task

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/applypilot/applypilot-api/internal/failure"
	"github.com/applypilot/applypilot-api/internal/session"
)

// ExecutorConfig holds the executor's retry tuning.
type ExecutorConfig struct {
	// Policy governs retries for failures raised by the automation body.
	Policy failure.Policy

	// AcquirePolicy governs retries after ResourceExhausted acquisition
	// failures. It shares the attempt budget with Policy but uses a longer
	// base delay, since capacity frees up on session timescales.
	AcquirePolicy failure.Policy
}

// DefaultExecutorConfig returns an ExecutorConfig with reasonable defaults.
func DefaultExecutorConfig() ExecutorConfig {
	p := failure.DefaultPolicy()
	acquire := p
	acquire.BaseDelay = 15 * time.Second
	return ExecutorConfig{Policy: p, AcquirePolicy: acquire}
}

// Executor runs one task attempt at a time: acquire a session, invoke the
// kind-specific body, classify the outcome, and either settle the task or
// hand a retry delay back to the caller. All failures raised inside an
// attempt are contained here; none propagate to the worker pool.
type Executor struct {
	queue    *Queue
	pool     *session.Pool
	quotas   session.QuotaResolver
	bodies   map[Kind]Body
	cfg      ExecutorConfig
	reporter FailureReporter
	metrics  Metrics
	logger   *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewExecutor creates an executor.
func NewExecutor(
	queue *Queue,
	pool *session.Pool,
	quotas session.QuotaResolver,
	bodies map[Kind]Body,
	cfg ExecutorConfig,
	reporter FailureReporter,
	metrics Metrics,
	logger *slog.Logger,
) *Executor {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Executor{
		queue:    queue,
		pool:     pool,
		quotas:   quotas,
		bodies:   bodies,
		cfg:      cfg,
		reporter: reporter,
		metrics:  metrics,
		logger:   logger.With("component", "task_executor"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RunAttempt executes one attempt of t. It returns done=true when the task
// reached a terminal state, or done=false with the backoff delay before the
// next attempt should be dispatched.
func (e *Executor) RunAttempt(ctx context.Context, t *Task) (retryAfter time.Duration, done bool) {
	log := e.logger.With("task_id", t.id, "task_kind", t.kind, "user_id", t.userID)

	// Cancellation checkpoint: observed between attempts, never mid-step.
	if t.CancelRequested() {
		e.queue.finish(ctx, t, StatusCancelled, nil, nil)
		log.Info("task cancelled before attempt")
		return 0, true
	}

	attempt, ok := t.beginAttempt()
	if !ok {
		// Settled while queued; the terminal state stands.
		log.Debug("task already settled, attempt skipped")
		return 0, true
	}
	if attempt == 1 {
		e.queue.markRunning(ctx, t)
	}
	log = log.With("attempt", attempt)
	log.Info("starting task attempt")

	handle, acquireErr := e.acquire(ctx, t)
	if acquireErr != nil {
		return e.settleFailure(ctx, t, attempt, acquireErr, e.cfg.AcquirePolicy, log)
	}

	body, ok := e.bodies[t.kind]
	if !ok {
		// Kind was validated at submission; a missing body is a wiring bug.
		e.pool.Release(handle, true)
		err := fmt.Errorf("no body registered for task kind %q", t.kind)
		return e.settleFailure(ctx, t, attempt, err, e.cfg.Policy, log)
	}

	result, err := body.Run(ctx, handle.Driver(), t)
	if err != nil {
		rec := failure.Classify(t.id, t.userID, err)
		e.pool.Release(handle, recyclable(rec.Category))
		return e.retryOrFail(ctx, t, attempt, rec, e.cfg.Policy, log)
	}

	e.pool.Release(handle, true)
	e.queue.finish(ctx, t, StatusSucceeded, result, nil)
	log.Info("task succeeded")
	return 0, true
}

// acquire resolves the user's quota and borrows a session. Quota lookup
// hiccups are surfaced as transient so a flaky subscription store cannot
// permanently fail a task.
func (e *Executor) acquire(ctx context.Context, t *Task) (*session.Handle, error) {
	quota, err := e.quotas.GetUserQuota(ctx, t.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: quota lookup failed: %v", automation.ErrTransient, err)
	}
	return e.pool.Acquire(ctx, t.userID, quota)
}

// settleFailure classifies err and routes through retryOrFail.
func (e *Executor) settleFailure(
	ctx context.Context,
	t *Task,
	attempt int,
	err error,
	policy failure.Policy,
	log *slog.Logger,
) (time.Duration, bool) {
	rec := failure.Classify(t.id, t.userID, err)
	return e.retryOrFail(ctx, t, attempt, rec, policy, log)
}

// retryOrFail decides between scheduling another attempt and finalizing the
// task as failed. Only the terminal record is surfaced to the reporter;
// consumed records are logged and discarded.
func (e *Executor) retryOrFail(
	ctx context.Context,
	t *Task,
	attempt int,
	rec failure.Record,
	policy failure.Policy,
	log *slog.Logger,
) (time.Duration, bool) {
	budget := e.cfg.Policy

	if rec.Eligible() && !budget.Exhausted(attempt) {
		// Another attempt was due; a cancellation pending at this boundary
		// wins, and the consumed record is discarded with it.
		if t.CancelRequested() {
			e.queue.finish(ctx, t, StatusCancelled, nil, nil)
			log.Info("task cancelled at retry boundary")
			return 0, true
		}

		delay := e.jittered(policy, attempt)
		e.metrics.RetryScheduled(rec.Category)
		log.Warn("attempt failed, retry scheduled",
			"category", string(rec.Category),
			"severity", string(rec.Severity),
			"delay", delay.String(),
			"error", rec.Message)
		return delay, false
	}

	e.queue.finish(ctx, t, StatusFailed, nil, &rec)

	// A reached application cap is a normal outcome, not an automation
	// defect; it stays out of the error-reporting sink.
	if e.reporter != nil && rec.Category != failure.CategoryQuotaExceeded {
		e.reporter.ReportFailure(ctx, rec)
	}
	log.Error("task failed",
		"category", string(rec.Category),
		"severity", string(rec.Severity),
		"attempts", attempt,
		"error", rec.Message)
	return 0, true
}

func (e *Executor) jittered(policy failure.Policy, attempt int) time.Duration {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return policy.Jittered(attempt, e.rng)
}

// recyclable reports whether the session that produced a failure in the
// given category is still trustworthy. Sessions behind authentication loss
// or structural drift are suspect and get destroyed instead of recycled.
func recyclable(c failure.Category) bool {
	switch c {
	case failure.CategoryAuthenticationLost, failure.CategoryStructuralChange:
		return false
	}
	return true
}
