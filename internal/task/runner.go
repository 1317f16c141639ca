package task

import (
	"context"
	"log/slog"
	"sync"
)

// RunnerConfig holds configuration for the worker pool.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process attempts.
	// If zero or negative, defaults to 2.
	WorkerCount int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{WorkerCount: 2}
}

// Runner is the bounded worker pool that drains the queue's dispatch channel
// and drives the executor. Each worker handles one attempt at a time; a retry
// is handed back to the queue's delayed scheduler, freeing the worker
// immediately.
type Runner struct {
	queue  *Queue
	exec   *Executor
	cfg    RunnerConfig
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a worker pool over the queue and executor.
func NewRunner(queue *Queue, exec *Executor, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultRunnerConfig().WorkerCount
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		queue:  queue,
		exec:   exec,
		cfg:    cfg,
		logger: logger.With("component", "task_runner"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker goroutines.
func (r *Runner) Start() {
	for i := 0; i < r.cfg.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("task runner started", "worker_count", r.cfg.WorkerCount)
}

// Stop signals all workers and waits for in-flight attempts to finish.
// Cooperative cancellation applies: a running automation step completes
// before its worker exits.
func (r *Runner) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	log := r.logger.With("worker_id", id)
	log.Debug("worker started")

	for {
		select {
		case <-r.ctx.Done():
			log.Debug("worker stopping")
			return

		case t, ok := <-r.queue.Dispatch():
			if !ok {
				log.Debug("dispatch channel closed, worker stopping")
				return
			}

			// Tasks settled while queued (cancelled before pickup) are
			// drained without dispatching an attempt.
			if t.Snapshot().Status.IsTerminal() {
				continue
			}

			retryAfter, done := r.exec.RunAttempt(r.ctx, t)
			if !done {
				r.queue.ScheduleRetry(t, retryAfter)
			}
		}
	}
}
