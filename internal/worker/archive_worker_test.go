package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	inserted []*model.ArchivedSession
	err      error
}

func (f *fakeStore) Insert(_ context.Context, s *model.ArchivedSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

// blockingStore holds every insert until its context ends.
type blockingStore struct {
	started chan struct{}
}

func (b *blockingStore) Insert(ctx context.Context, _ *model.ArchivedSession) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func payload(t *testing.T, id string) string {
	t.Helper()
	raw, err := json.Marshal(model.ArchivedSession{
		ID:          id,
		Answers:     map[string]string{"background": "Physics graduate"},
		Suitability: model.SuitabilityAverage,
	})
	require.NoError(t, err)
	return string(raw)
}

func queueLens(t *testing.T, rdb *redis.Client) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	queued, err := rdb.LLen(ctx, config.WorkerKey.ArchiveSessionsQueue).Result()
	require.NoError(t, err)
	inFlight, err := rdb.LLen(ctx, config.WorkerKey.ArchiveSessionsProcessing).Result()
	require.NoError(t, err)
	return queued, inFlight
}

func TestArchiveWorker_Handle(t *testing.T) {
	store := &fakeStore{}
	w := NewArchiveWorker(store, nil, zerolog.Nop())

	raw, err := json.Marshal(model.ArchivedSession{
		ID:            "0f8fad5b-d9cb-469f-a165-70867728950e",
		Answers:       map[string]string{"background": "Physics graduate"},
		Suitability:   model.SuitabilityStrong,
		ReadinessFlag: model.ReadinessReadyNow,
		CreatedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, w.handle(context.Background(), string(raw)))
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "Physics graduate", store.inserted[0].Answers["background"])
	assert.Equal(t, model.ReadinessReadyNow, store.inserted[0].ReadinessFlag)
}

func TestArchiveWorker_HandleErrors(t *testing.T) {
	store := &fakeStore{}
	w := NewArchiveWorker(store, nil, zerolog.Nop())

	err := w.handle(context.Background(), "{not json")
	var decodeErr *decodeError
	assert.True(t, errors.As(err, &decodeErr))

	store.err = errors.New("db down")
	err = w.handle(context.Background(), `{"id":"x"}`)
	require.Error(t, err)
	assert.False(t, errors.As(err, &decodeErr))
	assert.True(t, errors.Is(err, store.err))
}

func TestArchiveWorker_ProcessNext(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	store := &fakeStore{}
	w := NewArchiveWorker(store, rdb, zerolog.Nop())

	require.NoError(t, rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue,
		payload(t, "0f8fad5b-d9cb-469f-a165-70867728950e"), "{broken").Err())

	w.processNext(ctx)
	require.Equal(t, 1, store.count())
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", store.inserted[0].ID)

	// Malformed payloads are dropped, not retried.
	w.processNext(ctx)
	assert.Equal(t, 1, store.count())

	queued, inFlight := queueLens(t, rdb)
	assert.Zero(t, queued)
	assert.Zero(t, inFlight)
}

func TestArchiveWorker_InsertErrorRequeues(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	store := &fakeStore{err: errors.New("db down")}
	w := NewArchiveWorker(store, rdb, zerolog.Nop())
	w.retryDelay = time.Millisecond

	require.NoError(t, rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue, payload(t, "a")).Err())

	w.processNext(ctx)

	queued, inFlight := queueLens(t, rdb)
	assert.Equal(t, int64(1), queued)
	assert.Zero(t, inFlight)
}

func TestArchiveWorker_CancelDuringInsertKeepsItem(t *testing.T) {
	rdb := newTestRedis(t)
	store := &blockingStore{started: make(chan struct{})}
	w := NewArchiveWorker(store, rdb, zerolog.Nop())

	require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.ArchiveSessionsQueue, payload(t, "a")).Err())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.processNext(ctx)
	}()

	select {
	case <-store.started:
	case <-time.After(5 * time.Second):
		t.Fatal("insert never started")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("processNext did not return after cancel")
	}

	queued, inFlight := queueLens(t, rdb)
	assert.Equal(t, int64(1), queued, "the session must stay queued")
	assert.Zero(t, inFlight)
}

func TestArchiveWorker_Drain(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	store := &fakeStore{}
	w := NewArchiveWorker(store, rdb, zerolog.Nop())

	require.NoError(t, rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue, payload(t, "a"), payload(t, "b")).Err())
	// Left behind by a run that died mid-insert.
	require.NoError(t, rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsProcessing, payload(t, "c")).Err())

	w.drain(ctx)

	require.Equal(t, 3, store.count())
	assert.Equal(t, "c", store.inserted[0].ID)
	queued, inFlight := queueLens(t, rdb)
	assert.Zero(t, queued)
	assert.Zero(t, inFlight)
}

func TestArchiveWorker_DrainStopsOnStoreError(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	store := &fakeStore{err: errors.New("db down")}
	w := NewArchiveWorker(store, rdb, zerolog.Nop())

	require.NoError(t, rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue, payload(t, "a"), payload(t, "b")).Err())

	w.drain(ctx)

	queued, inFlight := queueLens(t, rdb)
	assert.Equal(t, int64(2), queued)
	assert.Zero(t, inFlight)
}

func TestArchiveWorker_StartAndStop(t *testing.T) {
	rdb := newTestRedis(t)
	store := &fakeStore{}
	w := NewArchiveWorker(store, rdb, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()

	require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.ArchiveSessionsQueue, payload(t, "a")).Err())
	require.Eventually(t, func() bool { return store.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
