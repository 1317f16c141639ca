package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/applypilot/applypilot-api/internal/platform/logger"
	"github.com/applypilot/applypilot-api/internal/store"
	"github.com/applypilot/applypilot-api/internal/task"
)

// TaskStore implements task.RecordStore using PostgreSQL, giving status
// queries durability across process restarts.
type TaskStore struct {
	db store.DBTX
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db store.DBTX) *TaskStore {
	return &TaskStore{db: db}
}

// SaveTask inserts the initial snapshot of a newly submitted task.
func (s *TaskStore) SaveTask(ctx context.Context, snap task.Snapshot) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (id, kind, user_id, status, attempts, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		snap.ID,
		string(snap.Kind),
		snap.UserID,
		string(snap.Status),
		snap.Attempts,
		snap.SubmittedAt.UTC(),
		snap.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to save task record",
			"task_id", snap.ID,
			"task_kind", snap.Kind,
			"error", err)
		return fmt.Errorf("failed to save task record: %w", MapError(err))
	}
	return nil
}

// UpdateTask persists a task's current snapshot: state, attempt counter,
// result payload, and the terminal failure summary if any.
func (s *TaskStore) UpdateTask(ctx context.Context, snap task.Snapshot) error {
	log := logger.FromContext(ctx)

	var failureJSON []byte
	if snap.Failure != nil {
		var err error
		failureJSON, err = json.Marshal(snap.Failure)
		if err != nil {
			return fmt.Errorf("failed to encode failure record: %w", err)
		}
	}

	query := `
		UPDATE tasks
		SET status = $1, attempts = $2, result = $3, failure = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		string(snap.Status),
		snap.Attempts,
		[]byte(snap.Result),
		failureJSON,
		time.Now().UTC(),
		snap.ID,
	)
	if err != nil {
		log.Error("failed to update task record",
			"task_id", snap.ID,
			"status", snap.Status,
			"error", err)
		return fmt.Errorf("failed to update task record: %w", MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Warn("no task record found to update", "task_id", snap.ID)
		return store.ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes a persisted record after a failed submission. Deleting
// a missing record is not an error.
func (s *TaskStore) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	log := logger.FromContext(ctx)

	query := `DELETE FROM tasks WHERE id = $1`

	if _, err := s.db.ExecContext(ctx, query, taskID); err != nil {
		log.Error("failed to delete task record",
			"task_id", taskID,
			"error", err)
		return fmt.Errorf("failed to delete task record: %w", MapError(err))
	}
	return nil
}

var _ task.RecordStore = (*TaskStore)(nil)
