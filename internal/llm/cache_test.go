package llm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cache := NewRedisCache(rdb, 2*time.Hour)
	key := CacheKey("mistral-medium-latest", "What is the tuition?")

	text, ok, err := cache.Get(ctx, key)
	require.NoError(t, err, "a miss is not an error")
	assert.False(t, ok)
	assert.Empty(t, text)

	require.NoError(t, cache.Set(ctx, key, "Tuition is $7,500."))
	assert.Equal(t, 2*time.Hour, mr.TTL(config.CacheKey.LLMResponseKey(key)))

	text, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Tuition is $7,500.", text)

	mr.FastForward(3 * time.Hour)
	_, ok, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired entries miss")
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	_, ok, err := NewRedisCache(rdb, time.Hour).Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}
