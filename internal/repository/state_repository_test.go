package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/interview"
	"github.com/stemsi/interview-agent/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStateRepository()

	_, err := repo.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	agent := interview.NewAgent([]model.Question{{Key: "a", Text: "A?"}}, 5)
	agent.Start()
	require.NoError(t, repo.Save(ctx, "s1", agent.State()))

	// Mutating the agent after saving must not leak into the store.
	_, _ = agent.NextQuestion()

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Index)
	require.Len(t, loaded.Turns, 1)
	assert.Equal(t, interview.Greeting, loaded.Turns[0].Text)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Load(ctx, "s1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStateRepository(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	repo := NewRedisStateRepository(rdb, 30*time.Minute)
	key := config.CacheKey.InterviewStateKey("s1")

	_, err := repo.Load(ctx, "s1")
	assert.True(t, errors.Is(err, ErrNotFound))

	agent := interview.NewAgent([]model.Question{{Key: "a", Text: "A?"}, {Key: "b", Text: "B?"}}, 5)
	agent.Start()
	require.NoError(t, repo.Save(ctx, "s1", agent.State()))
	assert.Equal(t, 30*time.Minute, mr.TTL(key))

	mr.FastForward(20 * time.Minute)
	_, _ = agent.NextQuestion()
	require.NoError(t, repo.Save(ctx, "s1", agent.State()))
	assert.Equal(t, 30*time.Minute, mr.TTL(key), "every save restarts the TTL")

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Index)
	cur, ok := interview.Restore(loaded, 5).Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.Key)

	mr.FastForward(31 * time.Minute)
	_, err = repo.Load(ctx, "s1")
	assert.True(t, errors.Is(err, ErrNotFound), "expired state is gone")

	require.NoError(t, repo.Save(ctx, "s2", agent.State()))
	require.NoError(t, repo.Delete(ctx, "s2"))
	_, err = repo.Load(ctx, "s2")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStateRepository_CorruptState(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, mr.Set(config.CacheKey.InterviewStateKey("bad"), "{not json"))

	_, err := NewRedisStateRepository(rdb, time.Minute).Load(ctx, "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
