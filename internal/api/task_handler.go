package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/applypilot/applypilot-api/internal/api/middleware"
	"github.com/applypilot/applypilot-api/internal/api/shared"
	"github.com/applypilot/applypilot-api/internal/task"
)

// TaskHandler serves task submission, status, and cancellation.
type TaskHandler struct {
	queue *task.Queue
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(queue *task.Queue) *TaskHandler {
	return &TaskHandler{queue: queue}
}

// Submit handles POST /api/tasks. Accepts the task for asynchronous
// execution and returns 202 with the assigned task ID.
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	taskID, err := h.queue.Submit(r.Context(), task.Kind(req.Kind), userID, req.Payload)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitTaskResponse{
		TaskID: taskID,
		Status: string(task.StatusPending),
	})
}

// Status handles GET /api/tasks/{id}. Tasks are visible only to their
// submitter; foreign tasks read as not found.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	snap, err := h.lookupOwned(r, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(snap))
}

// Cancel handles POST /api/tasks/{id}/cancel. Cancellation is cooperative:
// a pending task settles immediately, a running task stops at its next
// attempt boundary. Returns 202 either way.
func (h *TaskHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	snap, err := h.lookupOwned(r, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.queue.Cancel(r.Context(), snap.ID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
		"task_id": snap.ID.String(),
		"status":  "cancellation_requested",
	})
}

// lookupOwned resolves the {id} URL parameter to a task snapshot owned by
// userID. Malformed IDs and foreign tasks both map to ErrTaskNotFound so the
// API does not reveal which task IDs exist.
func (h *TaskHandler) lookupOwned(r *http.Request, userID uuid.UUID) (task.Snapshot, error) {
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return task.Snapshot{}, task.ErrTaskNotFound
	}

	snap, err := h.queue.Status(taskID)
	if err != nil {
		return task.Snapshot{}, err
	}
	if snap.UserID != userID {
		return task.Snapshot{}, task.ErrTaskNotFound
	}
	return snap, nil
}
