package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/interview-agent/internal/config"
)

// Cache stores generated text keyed by CacheKey. Get returns ok=false on a
// miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string) error
}

// CacheKey hashes the model and prompt into a hex digest.
func CacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\n" + prompt))
	return hex.EncodeToString(sum[:])
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (NopCache) Set(context.Context, string, string) error         { return nil }

// FileCache keeps one <key>.txt file per response under a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".txt")
}

func (c *FileCache) Get(_ context.Context, key string) (string, bool, error) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(raw), true, nil
}

func (c *FileCache) Set(_ context.Context, key, text string) error {
	return os.WriteFile(c.path(key), []byte(text), 0o644)
}

// RedisCache stores responses in Redis with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	text, err := c.rdb.Get(ctx, config.CacheKey.LLMResponseKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, text string) error {
	return c.rdb.Set(ctx, config.CacheKey.LLMResponseKey(key), text, c.ttl).Err()
}

// NewCache builds the cache selected by cfg.LLMCache. rdb may be nil unless
// the redis backend is selected.
func NewCache(cfg *config.Config, rdb *redis.Client) (Cache, error) {
	switch cfg.LLMCache {
	case config.CacheNone:
		return NopCache{}, nil
	case config.CacheFile:
		return NewFileCache(cfg.LLMCacheDir)
	case config.CacheRedis:
		if rdb == nil {
			return nil, errors.New("redis cache selected but no redis client available")
		}
		return NewRedisCache(rdb, cfg.LLMCacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown LLM cache %q", cfg.LLMCache)
	}
}
