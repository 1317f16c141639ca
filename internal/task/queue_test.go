package task

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQueue(cfg QueueConfig) *Queue {
	return NewQueue(cfg, nil, nil, discardLogger())
}

var searchPayload = json.RawMessage(`{"criteria":{"keywords":["go"],"location":"Berlin"}}`)

// fakeRecordStore captures persisted snapshots.
type fakeRecordStore struct {
	saved   []Snapshot
	updated []Snapshot
	deleted []uuid.UUID
	saveErr error
}

func (s *fakeRecordStore) SaveTask(_ context.Context, snap Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, snap)
	return nil
}

func (s *fakeRecordStore) UpdateTask(_ context.Context, snap Snapshot) error {
	s.updated = append(s.updated, snap)
	return nil
}

func (s *fakeRecordStore) DeleteTask(_ context.Context, taskID uuid.UUID) error {
	s.deleted = append(s.deleted, taskID)
	return nil
}

func TestSubmitAndStatus(t *testing.T) {
	q := newTestQueue(QueueConfig{})
	userID := uuid.New()

	id, err := q.Submit(context.Background(), KindSearch, userID, searchPayload)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	snap, err := q.Status(id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, KindSearch, snap.Kind)
	assert.Equal(t, userID, snap.UserID)
	assert.Equal(t, StatusPending, snap.Status)
	assert.Equal(t, 0, snap.Attempts)
}

func TestSubmitUnknownKind(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	_, err := q.Submit(context.Background(), Kind("scrape"), uuid.New(), searchPayload)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSubmitDisabledKind(t *testing.T) {
	q := newTestQueue(QueueConfig{DisabledKinds: []Kind{KindGenerateResume}})

	_, err := q.Submit(context.Background(), KindGenerateResume, uuid.New(), searchPayload)
	assert.ErrorIs(t, err, ErrKindDisabled)

	// Other kinds are unaffected.
	_, err = q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	assert.NoError(t, err)
}

func TestSubmitQueueFull(t *testing.T) {
	q := newTestQueue(QueueConfig{QueueSize: 1})

	_, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)

	id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	assert.ErrorIs(t, err, ErrQueueFull)

	// A rejected task must not linger in the tracking table.
	_, err = q.Status(id)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSubmitAfterStop(t *testing.T) {
	q := newTestQueue(QueueConfig{})
	q.Stop()

	_, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestSubmitPersistsInitialSnapshot(t *testing.T) {
	store := &fakeRecordStore{}
	q := NewQueue(QueueConfig{}, store, nil, discardLogger())

	id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, id, store.saved[0].ID)
	assert.Equal(t, StatusPending, store.saved[0].Status)
}

func TestSubmitQueueFullDeletesPersistedRecord(t *testing.T) {
	store := &fakeRecordStore{}
	q := NewQueue(QueueConfig{QueueSize: 1}, store, nil, discardLogger())

	_, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)

	_, err = q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.ErrorIs(t, err, ErrQueueFull)

	// The rejected task's saved snapshot must not linger as an orphaned
	// pending row.
	require.Len(t, store.saved, 2)
	require.Len(t, store.deleted, 1)
	assert.Equal(t, store.saved[1].ID, store.deleted[0])
}

func TestSubmitStoreFailure(t *testing.T) {
	store := &fakeRecordStore{saveErr: errors.New("connection refused")}
	q := NewQueue(QueueConfig{}, store, nil, discardLogger())

	id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.Error(t, err)

	_, err = q.Status(id)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Empty(t, q.Dispatch(), "failed submission must not be dispatched")
}

func TestDispatchOrder(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for _, want := range ids {
		got := <-q.Dispatch()
		assert.Equal(t, want, got.ID())
	}
}

func TestStatusUnknownTask(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	_, err := q.Status(uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCancelPendingTask(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)

	require.NoError(t, q.Cancel(context.Background(), id))

	snap, err := q.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, snap.Status)
}

func TestCancelUnknownTask(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	err := q.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCancelTerminalTaskIsNoOp(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)

	tk := <-q.Dispatch()
	q.finish(context.Background(), tk, StatusSucceeded, json.RawMessage(`{}`), nil)

	require.NoError(t, q.Cancel(context.Background(), id))

	snap, err := q.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, snap.Status, "terminal state must not change")
}

func TestCancelledTaskCannotReenterRunning(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)
	tk := <-q.Dispatch()

	// Cancellation settles the still-pending task while a worker already
	// holds the dequeued entry and is past its cancellation checkpoint.
	require.NoError(t, q.Cancel(context.Background(), id))
	require.Equal(t, StatusCancelled, tk.Snapshot().Status)

	// The worker's attempt must be refused, not resurrect the task.
	attempt, ok := tk.beginAttempt()
	assert.False(t, ok)
	assert.Zero(t, attempt)

	snap := tk.Snapshot()
	assert.Equal(t, StatusCancelled, snap.Status)
	assert.Equal(t, 0, snap.Attempts)

	// Nor may a late settle record a second terminal state.
	q.finish(context.Background(), tk, StatusSucceeded, json.RawMessage(`{}`), nil)
	assert.Equal(t, StatusCancelled, tk.Snapshot().Status)
}

func TestFlushDueRespectsReadiness(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)
	tk := <-q.Dispatch()

	q.ScheduleRetry(tk, time.Minute)

	q.flushDue(time.Now())
	assert.Empty(t, q.Dispatch(), "task is not yet due")

	q.flushDue(time.Now().Add(2 * time.Minute))
	require.Len(t, q.Dispatch(), 1)
	assert.Equal(t, id, (<-q.Dispatch()).ID())
}

func TestFlushDueReparksWhenChannelFull(t *testing.T) {
	q := newTestQueue(QueueConfig{QueueSize: 1})

	id, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)
	tk := <-q.Dispatch()
	q.ScheduleRetry(tk, 0)

	// Fill the channel so the flush cannot hand the retry back.
	_, err = q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)

	q.flushDue(time.Now().Add(time.Second))
	assert.Len(t, q.Dispatch(), 1, "retry stays parked while the channel is full")

	// Drain and flush again: now the retry comes through.
	<-q.Dispatch()
	q.flushDue(time.Now().Add(time.Second))
	require.Len(t, q.Dispatch(), 1)
	assert.Equal(t, id, (<-q.Dispatch()).ID())
}

func TestFlushDueOrdersByReadiness(t *testing.T) {
	q := newTestQueue(QueueConfig{})

	first, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)
	second, err := q.Submit(context.Background(), KindSearch, uuid.New(), searchPayload)
	require.NoError(t, err)

	t1 := <-q.Dispatch()
	t2 := <-q.Dispatch()

	// Park in reverse readiness order.
	q.ScheduleRetry(t2, 10*time.Second)
	q.ScheduleRetry(t1, time.Second)

	q.flushDue(time.Now().Add(time.Minute))
	assert.Equal(t, first, (<-q.Dispatch()).ID())
	assert.Equal(t, second, (<-q.Dispatch()).ID())
}

func TestQueueStartStop(t *testing.T) {
	q := newTestQueue(QueueConfig{FlushSpec: "@every 1s"})
	require.NoError(t, q.Start())
	q.Stop()
}
