package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/model"
)

// SessionStore persists archived sessions.
type SessionStore interface {
	Insert(ctx context.Context, s *model.ArchivedSession) error
}

// ArchiveWorker consumes archive_sessions_queue and inserts finished
// interviews into PostgreSQL.
type ArchiveWorker struct {
	store      SessionStore
	rdb        *redis.Client
	log        zerolog.Logger
	retryDelay time.Duration
}

// NewArchiveWorker creates a new ArchiveWorker.
func NewArchiveWorker(store SessionStore, rdb *redis.Client, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		store:      store,
		rdb:        rdb,
		log:        log.With().Str("component", "archive_worker").Logger(),
		retryDelay: 5 * time.Second,
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")
	w.requeueInFlight(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

// requeueInFlight returns items left in the processing list by an earlier
// run to the head of the queue.
func (w *ArchiveWorker) requeueInFlight(ctx context.Context) {
	moved := 0
	for {
		_, err := w.rdb.LMove(ctx, config.WorkerKey.ArchiveSessionsProcessing,
			config.WorkerKey.ArchiveSessionsQueue, "RIGHT", "LEFT").Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				w.log.Error().Err(err).Msg("Failed to recover in-flight items")
			}
			break
		}
		moved++
	}
	if moved > 0 {
		w.log.Warn().Int("count", moved).Msg("Recovered in-flight archive items")
	}
}

func (w *ArchiveWorker) processNext(ctx context.Context) {
	// BLMove blocks until an item is available or timeout (1 second). The
	// item stays in the processing list until it is stored.
	raw, err := w.rdb.BLMove(ctx, config.WorkerKey.ArchiveSessionsQueue,
		config.WorkerKey.ArchiveSessionsProcessing, "LEFT", "RIGHT", time.Second).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLMove error")
		}
		return
	}

	if err := w.process(ctx, raw); err != nil {
		w.log.Error().Err(err).Msg("Archive error, retrying in 5s")
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// process stores one item taken from the queue. Stored and malformed items
// are acknowledged; anything else goes back on the queue.
func (w *ArchiveWorker) process(ctx context.Context, raw string) error {
	err := w.handle(ctx, raw)

	// Bookkeeping must finish even when ctx was cancelled mid-insert.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err == nil {
		w.ack(bg, raw)
		return nil
	}

	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		w.log.Error().Err(err).Msg("Dropping malformed archive payload")
		w.ack(bg, raw)
		return nil
	}

	w.requeue(bg, raw)
	return err
}

func (w *ArchiveWorker) ack(ctx context.Context, raw string) {
	if err := w.rdb.LRem(ctx, config.WorkerKey.ArchiveSessionsProcessing, 1, raw).Err(); err != nil {
		w.log.Error().Err(err).Msg("Failed to acknowledge archive item")
	}
}

// requeue moves raw from the processing list back to the tail of the queue
// in one transaction. On failure it stays in the processing list and is
// picked up by requeueInFlight.
func (w *ArchiveWorker) requeue(ctx context.Context, raw string) {
	_, err := w.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, config.WorkerKey.ArchiveSessionsProcessing, 1, raw)
		pipe.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue, raw)
		return nil
	})
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to requeue archive item")
	}
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return fmt.Sprintf("decode archived session: %v", e.err) }
func (e *decodeError) Unwrap() error { return e.err }

// handle decodes one queue payload and stores it.
func (w *ArchiveWorker) handle(ctx context.Context, raw string) error {
	var s model.ArchivedSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return &decodeError{err: err}
	}
	if err := w.store.Insert(ctx, &s); err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}
	w.log.Info().Str("session_id", s.ID).Msg("Session archived")
	return nil
}

// drain processes all remaining items in the queue before shutdown. It stops
// at the first storage error and leaves that item queued for the next run.
func (w *ArchiveWorker) drain(ctx context.Context) {
	w.requeueInFlight(ctx)

	drained := 0
	for {
		raw, err := w.rdb.LMove(ctx, config.WorkerKey.ArchiveSessionsQueue,
			config.WorkerKey.ArchiveSessionsProcessing, "LEFT", "RIGHT").Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				w.log.Error().Err(err).Msg("Drain error")
			}
			break
		}

		if err := w.process(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain archive error")
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
