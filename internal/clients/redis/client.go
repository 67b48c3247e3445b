package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/utils"
)

// NewClient dials Redis from REDIS_ADDR. Returns (nil, nil) when the
// variable is unset so the caller can run without a cache.
func NewClient(log *logger.Logger) (*goredis.Client, error) {
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		if log != nil {
			log.Warn("REDIS_ADDR not set; capsule cache and build locks disabled")
		}
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    utils.GetEnv("REDIS_PASSWORD", "", nil),
		DB:          utils.GetEnvAsInt("REDIS_DB", 0, nil),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
