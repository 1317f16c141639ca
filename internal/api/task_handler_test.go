package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applypilot/applypilot-api/internal/api"
	"github.com/applypilot/applypilot-api/internal/api/shared"
	"github.com/applypilot/applypilot-api/internal/task"
)

func newTestRouter(t *testing.T) (*chi.Mux, *task.Queue) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := task.NewQueue(task.DefaultQueueConfig(), nil, nil, logger)
	handler := api.NewTaskHandler(queue)

	r := chi.NewRouter()
	r.Post("/api/tasks", handler.Submit)
	r.Get("/api/tasks/{id}", handler.Status)
	r.Post("/api/tasks/{id}/cancel", handler.Cancel)
	return r, queue
}

// asUser forges the authenticated-user context the auth middleware would set.
func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

func submitBody(t *testing.T, kind string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"kind": kind,
		"payload": map[string]interface{}{
			"criteria": map[string]interface{}{"keywords": []string{"golang"}},
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestSubmitTask(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", submitBody(t, "search"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, asUser(req, userID))

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp api.SubmitTaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEqual(t, uuid.Nil, resp.TaskID)
	assert.Equal(t, "pending", resp.Status)
}

func TestSubmitTaskUnauthenticated(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", submitBody(t, "search"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitTaskValidation(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := uuid.New()

	tests := []struct {
		name string
		body string
	}{
		{name: "unknown kind", body: `{"kind":"teleport","payload":{}}`},
		{name: "missing kind", body: `{"payload":{}}`},
		{name: "missing payload", body: `{"kind":"search"}`},
		{name: "malformed JSON", body: `{"kind":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost, "/api/tasks", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, asUser(req, userID))

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestTaskStatus(t *testing.T) {
	router, queue := newTestRouter(t)
	userID := uuid.New()

	taskID, err := queue.Submit(
		context.Background(), task.KindSearch, userID, json.RawMessage(`{}`))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+taskID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, asUser(req, userID))

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TaskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, taskID, resp.ID)
	assert.Equal(t, "search", resp.Kind)
	assert.Equal(t, "pending", resp.Status)
	assert.Zero(t, resp.Attempts)
	assert.Nil(t, resp.Failure)
}

func TestTaskStatusHidesForeignTasks(t *testing.T) {
	router, queue := newTestRouter(t)
	owner := uuid.New()
	stranger := uuid.New()

	taskID, err := queue.Submit(
		context.Background(), task.KindSearch, owner, json.RawMessage(`{}`))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+taskID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, asUser(req, stranger))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskStatusNotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	userID := uuid.New()

	for _, id := range []string{uuid.New().String(), "not-a-uuid"} {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, asUser(req, userID))

		assert.Equal(t, http.StatusNotFound, w.Code, "id %q", id)
	}
}

func TestCancelPendingTask(t *testing.T) {
	router, queue := newTestRouter(t)
	userID := uuid.New()

	taskID, err := queue.Submit(
		context.Background(), task.KindApply, userID, json.RawMessage(`{}`))
	require.NoError(t, err)

	req := httptest.NewRequest(
		http.MethodPost, "/api/tasks/"+taskID.String()+"/cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, asUser(req, userID))

	require.Equal(t, http.StatusAccepted, w.Code)

	// A pending task settles immediately.
	snap, err := queue.Status(taskID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCancelled, snap.Status)
}

func TestCancelForeignTask(t *testing.T) {
	router, queue := newTestRouter(t)
	owner := uuid.New()

	taskID, err := queue.Submit(
		context.Background(), task.KindApply, owner, json.RawMessage(`{}`))
	require.NoError(t, err)

	req := httptest.NewRequest(
		http.MethodPost, "/api/tasks/"+taskID.String()+"/cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, asUser(req, uuid.New()))

	assert.Equal(t, http.StatusNotFound, w.Code)

	snap, err := queue.Status(taskID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, snap.Status)
}
