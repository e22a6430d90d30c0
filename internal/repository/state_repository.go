package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/interview"
)

// StateRepository persists live interview state between requests.
type StateRepository interface {
	Save(ctx context.Context, sessionID string, state *interview.State) error
	Load(ctx context.Context, sessionID string) (*interview.State, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisStateRepository keeps interview state as JSON with a sliding TTL.
type RedisStateRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStateRepository(rdb *redis.Client, ttl time.Duration) *RedisStateRepository {
	return &RedisStateRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisStateRepository) Save(ctx context.Context, sessionID string, state *interview.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return r.rdb.Set(ctx, config.CacheKey.InterviewStateKey(sessionID), raw, r.ttl).Err()
}

func (r *RedisStateRepository) Load(ctx context.Context, sessionID string) (*interview.State, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.InterviewStateKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var state interview.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

func (r *RedisStateRepository) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, config.CacheKey.InterviewStateKey(sessionID)).Err()
}

// MemoryStateRepository is an in-process StateRepository. State is stored
// as JSON so callers never share mutable values with the store.
type MemoryStateRepository struct {
	mu     sync.Mutex
	states map[string][]byte
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{states: make(map[string][]byte)}
}

func (r *MemoryStateRepository) Save(_ context.Context, sessionID string, state *interview.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[sessionID] = raw
	return nil
}

func (r *MemoryStateRepository) Load(_ context.Context, sessionID string) (*interview.State, error) {
	r.mu.Lock()
	raw, ok := r.states[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state interview.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

func (r *MemoryStateRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, sessionID)
	return nil
}
