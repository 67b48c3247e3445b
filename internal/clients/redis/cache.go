package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/playalore/playalore/internal/logger"
)

// PayloadCache stores JSON payloads under string keys with a TTL. The
// cache is non-authoritative: a miss is never an error condition for
// callers, and writes may silently expire early.
type PayloadCache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type payloadCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewPayloadCache(rdb *goredis.Client, baseLog *logger.Logger) PayloadCache {
	return &payloadCache{log: baseLog.With("client", "PayloadCache"), rdb: rdb}
}

func (c *payloadCache) Get(ctx context.Context, key string, out any) (bool, error) {
	if c.rdb == nil {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A corrupt entry behaves like a miss; the database row is the
		// fallback source of truth.
		c.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *payloadCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.rdb == nil {
		return nil
	}
	if ttl <= 0 {
		return fmt.Errorf("cache set %q: non-positive ttl", key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %q: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

func (c *payloadCache) Delete(ctx context.Context, key string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, key).Err()
}
