package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/applypilot/applypilot-api/internal/automation/remote"
	"github.com/applypilot/applypilot-api/internal/config"
	"github.com/applypilot/applypilot-api/internal/events"
	"github.com/applypilot/applypilot-api/internal/failure"
	"github.com/applypilot/applypilot-api/internal/platform/gemini"
	"github.com/applypilot/applypilot-api/internal/platform/metrics"
	"github.com/applypilot/applypilot-api/internal/platform/postgres"
	appredis "github.com/applypilot/applypilot-api/internal/platform/redis"
	"github.com/applypilot/applypilot-api/internal/service/auth"
	"github.com/applypilot/applypilot-api/internal/session"
	"github.com/applypilot/applypilot-api/internal/task"
)

// application holds the shared application dependencies so startup order and
// shutdown cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	jwtService auth.JWTService

	pool   *session.Pool
	queue  *task.Queue
	runner *task.Runner

	emitter  *events.InMemoryEmitter
	registry *prometheus.Registry
}

// newApplication wires every component. Construction order follows the data
// flow: stores → automation opener → pool → engine → event handlers.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.redis, err = appredis.NewClient(ctx, cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis client: %w", err)
	}
	cookieStore := appredis.NewCookieStore(app.redis)

	// Session opener: gateway driver behind cookie restoration.
	var opener automation.SessionOpener = remote.NewOpener(cfg.Gateway.URL)
	opener = automation.NewCookieRestoringOpener(opener, cookieStore)

	app.pool = session.NewPool(opener, session.Config{
		IdleTimeout:  time.Duration(cfg.Pool.IdleTimeoutSeconds) * time.Second,
		ReapInterval: time.Duration(cfg.Pool.ReapIntervalSeconds) * time.Second,
	}, logger)

	quotas := postgres.NewQuotaStore(db, cfg.Pool.DefaultPerUserSessions, cfg.Pool.MaxGlobalSessions)
	taskStore := postgres.NewTaskStore(db)

	engineMetrics := metrics.NewEngineMetrics(app.registry)
	metrics.NewPoolCollector(app.registry, app.pool)

	// Resume tailoring is optional; without an API key the generate-resume
	// kind is rejected at submission instead of failing at execution.
	var tailor automation.ResumeTailor
	var disabledKinds []task.Kind
	if cfg.LLM.GeminiAPIKey != "" {
		tailor, err = gemini.NewTailor(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize resume tailor: %w", err)
		}
	} else {
		disabledKinds = append(disabledKinds, task.KindGenerateResume)
		logger.Warn("no Gemini API key configured, generate-resume tasks disabled")
	}

	app.queue = task.NewQueue(task.QueueConfig{
		QueueSize:     cfg.Worker.QueueSize,
		DisabledKinds: disabledKinds,
	}, taskStore, engineMetrics, logger)

	// Failure event bus: log reporter always, cookie invalidation on auth loss.
	app.emitter = events.NewInMemoryEmitter(logger)
	app.emitter.RegisterHandler(events.NewLogHandler(logger))
	app.emitter.RegisterHandler(appredis.NewJarInvalidator(cookieStore, logger))

	executor := task.NewExecutor(
		app.queue,
		app.pool,
		quotas,
		task.DefaultBodies(tailor),
		executorConfig(cfg.Worker),
		app.emitter,
		engineMetrics,
		logger,
	)

	app.runner = task.NewRunner(app.queue, executor, task.RunnerConfig{
		WorkerCount: cfg.Worker.Count,
	}, logger)

	logger.Info("application initialized")
	return app, nil
}

// executorConfig translates worker configuration into retry policies. The
// acquisition policy shares the attempt budget but waits longer between
// attempts, since pool capacity frees up on session timescales.
func executorConfig(w config.WorkerConfig) task.ExecutorConfig {
	policy := failure.Policy{
		MaxAttempts: w.MaxAttempts,
		BaseDelay:   time.Duration(w.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(w.MaxDelayMs) * time.Millisecond,
	}
	acquire := policy
	acquire.BaseDelay = time.Duration(w.AcquireBaseDelayMs) * time.Millisecond
	return task.ExecutorConfig{Policy: policy, AcquirePolicy: acquire}
}

// Run starts the engine and serves HTTP until shutdown.
func (app *application) Run(ctx context.Context) error {
	app.pool.Start()
	if err := app.queue.Start(); err != nil {
		return fmt.Errorf("failed to start task queue: %w", err)
	}
	app.runner.Start()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup tears components down in reverse dependency order: stop accepting
// work, drain workers, destroy sessions, then drop connections.
func (app *application) cleanup() {
	app.queue.Stop()
	app.runner.Stop()
	app.pool.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
