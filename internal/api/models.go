package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/applypilot/applypilot-api/internal/failure"
	"github.com/applypilot/applypilot-api/internal/session"
	"github.com/applypilot/applypilot-api/internal/task"
)

// SubmitTaskRequest is the request body for task submission. Payload is
// decoded per task kind by the executor bodies; only presence is checked
// here.
type SubmitTaskRequest struct {
	Kind    string          `json:"kind"    validate:"required,oneof=search apply generate_resume"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// SubmitTaskResponse is returned on successful submission.
type SubmitTaskResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Status string    `json:"status"`
}

// FailureDetail is the client-visible subset of a terminal failure record.
type FailureDetail struct {
	Category failure.Category `json:"category"`
	Severity failure.Severity `json:"severity"`
	Message  string           `json:"message"`
}

// TaskResponse is the representation of a task returned by status queries.
type TaskResponse struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	Result      json.RawMessage `json:"result,omitempty"`
	Failure     *FailureDetail  `json:"failure,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// newTaskResponse converts a task snapshot to its API representation.
// Failure messages pass through redaction upstream; only the category,
// severity, and message are exposed.
func newTaskResponse(snap task.Snapshot) TaskResponse {
	resp := TaskResponse{
		ID:          snap.ID,
		Kind:        string(snap.Kind),
		Status:      string(snap.Status),
		Attempts:    snap.Attempts,
		Result:      snap.Result,
		SubmittedAt: snap.SubmittedAt,
		UpdatedAt:   snap.UpdatedAt,
	}
	if snap.Failure != nil {
		resp.Failure = &FailureDetail{
			Category: snap.Failure.Category,
			Severity: snap.Failure.Severity,
			Message:  snap.Failure.Message,
		}
	}
	return resp
}

// PoolStatsResponse is the admin view of the session pool.
type PoolStatsResponse struct {
	GlobalLive  int            `json:"global_live"`
	Idle        int            `json:"idle"`
	PerUserLive map[string]int `json:"per_user_live"`
}

// newPoolStatsResponse converts pool stats, stringifying user IDs for JSON
// object keys.
func newPoolStatsResponse(stats session.Stats) PoolStatsResponse {
	perUser := make(map[string]int, len(stats.PerUserLive))
	for userID, n := range stats.PerUserLive {
		perUser[userID.String()] = n
	}
	return PoolStatsResponse{
		GlobalLive:  stats.GlobalLive,
		Idle:        stats.Idle,
		PerUserLive: perUser,
	}
}
