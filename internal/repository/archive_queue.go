package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/interview-agent/internal/config"
	"github.com/stemsi/interview-agent/internal/model"
)

// ArchiveQueue hands finished sessions to the archive worker through a Redis
// list.
type ArchiveQueue struct {
	rdb *redis.Client
}

func NewArchiveQueue(rdb *redis.Client) *ArchiveQueue {
	return &ArchiveQueue{rdb: rdb}
}

// Enqueue pushes a finished session onto the archive queue.
func (q *ArchiveQueue) Enqueue(ctx context.Context, s *model.ArchivedSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode archived session: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue, raw).Err()
}
