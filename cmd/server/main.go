// Package main implements the entry point for the applypilot API server:
// the session-pooled automation engine behind automated job applications.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/applypilot/applypilot-api/internal/config"
	"github.com/applypilot/applypilot-api/internal/platform/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, appLogger, err := bootstrap()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx := context.Background()

	db, err := openDatabase(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if *migrateOnly {
		appLogger.Info("migrations applied, exiting")
		return
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// bootstrap loads configuration and installs the structured logger.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Worker.Count,
		"max_global_sessions", cfg.Pool.MaxGlobalSessions)

	return cfg, appLogger, nil
}
