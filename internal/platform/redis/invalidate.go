package redis

import (
	"context"
	"log/slog"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/applypilot/applypilot-api/internal/events"
	"github.com/applypilot/applypilot-api/internal/failure"
)

// JarInvalidator drops a user's stored cookie jar when a task fails with
// lost authentication. The next session for that user then takes the fresh
// login path instead of looping on dead cookies.
type JarInvalidator struct {
	cookies automation.CookieStore
	logger  *slog.Logger
}

// NewJarInvalidator creates a JarInvalidator over the given cookie store.
func NewJarInvalidator(cookies automation.CookieStore, logger *slog.Logger) *JarInvalidator {
	return &JarInvalidator{
		cookies: cookies,
		logger:  logger.With("component", "jar_invalidator"),
	}
}

var _ events.Handler = (*JarInvalidator)(nil)

// HandleFailure implements events.Handler.
func (i *JarInvalidator) HandleFailure(ctx context.Context, event *events.FailureEvent) error {
	if event.Record.Category != failure.CategoryAuthenticationLost {
		return nil
	}

	if err := i.cookies.DeleteJar(ctx, event.Record.UserID); err != nil {
		i.logger.Error("failed to invalidate cookie jar",
			"user_id", event.Record.UserID,
			"task_id", event.Record.TaskID,
			"error", err)
		return err
	}

	i.logger.Info("cookie jar invalidated after authentication loss",
		"user_id", event.Record.UserID,
		"task_id", event.Record.TaskID)
	return nil
}
