package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/playalore/playalore/internal/logger"
)

// LockService is a string-keyed lease: Acquire succeeds for at most one
// holder per key until Release or the TTL elapses. Backed by SET NX.
// Single-key atomicity only; there are no multi-key transactions.
type LockService interface {
	// Acquire returns true when the lease was taken, false when another
	// holder already has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type lockService struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewLockService(rdb *goredis.Client, baseLog *logger.Logger) LockService {
	return &lockService{log: baseLog.With("client", "LockService"), rdb: rdb}
}

func (l *lockService) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l.rdb == nil {
		// No lock backend: behave as an always-free lock so single-node
		// deployments still build capsules.
		return true, nil
	}
	ok, err := l.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lock acquire %q: %w", key, err)
	}
	return ok, nil
}

func (l *lockService) Release(ctx context.Context, key string) error {
	if l.rdb == nil {
		return nil
	}
	if err := l.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("lock release %q: %w", key, err)
	}
	return nil
}
