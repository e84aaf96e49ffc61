package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const cursorKey = "ingest:offset"

// RedisCursor keeps the ingestion offset in Redis so a restarted process
// resumes after the last attempted update instead of replaying the feed.
type RedisCursor struct {
	client *redis.Client
}

func NewRedisCursor(client *redis.Client) *RedisCursor {
	return &RedisCursor{client: client}
}

func (c *RedisCursor) Load(ctx context.Context) (int, error) {
	offset, err := c.client.Get(ctx, cursorKey).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}
	return offset, nil
}

func (c *RedisCursor) Save(ctx context.Context, offset int) error {
	if err := c.client.Set(ctx, cursorKey, offset, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cursor: %w", err)
	}
	return nil
}
