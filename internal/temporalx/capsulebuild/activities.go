package capsulebuild

import (
	"context"
	"fmt"

	"github.com/playalore/playalore/internal/clients/redis"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/styling"
)

type Activities struct {
	Log         *logger.Logger
	Builder     *styling.Builder
	Maintenance *styling.Maintenance
	Locks       redis.LockService
}

// BuildCapsule runs one build under the distributed lock. A held lock
// means another worker owns this key; skipping is a success, not a
// retryable failure.
func (a *Activities) BuildCapsule(ctx context.Context, req styling.BuildRequest) error {
	if a == nil || a.Builder == nil {
		return fmt.Errorf("capsulebuild: activity not configured")
	}

	key, err := a.Builder.ResolveKey(ctx, req)
	if err != nil {
		return err
	}

	if a.Locks != nil {
		acquired, err := a.Locks.Acquire(ctx, key.LockKey(), a.Builder.Config().BuildLockTTL)
		if err != nil {
			return fmt.Errorf("capsulebuild: acquire lock: %w", err)
		}
		if !acquired {
			if a.Log != nil {
				a.Log.Info("capsule build already in flight, skipping", "key", key.LockKey())
			}
			return nil
		}
		defer func() {
			if err := a.Locks.Release(context.WithoutCancel(ctx), key.LockKey()); err != nil && a.Log != nil {
				a.Log.Warn("capsule lock release failed", "key", key.LockKey(), "error", err)
			}
		}()
	}

	resp := a.Builder.Build(ctx, req)
	if !resp.OK {
		stage := ""
		if resp.Meta != nil {
			stage = resp.Meta.Stage
		}
		return fmt.Errorf("capsulebuild: build failed at %s: %s", stage, resp.Error)
	}
	if a.Log != nil {
		a.Log.Info("async capsule build completed",
			"persona", resp.PersonaID, "confidence", resp.StyleConfidence)
	}
	return nil
}

// RefreshScan enqueues rebuilds for capsules entering the refresh window.
func (a *Activities) RefreshScan(ctx context.Context) error {
	if a == nil || a.Maintenance == nil {
		return fmt.Errorf("capsulebuild: activity not configured")
	}
	n, err := a.Maintenance.RefreshScan(ctx)
	if err != nil {
		return err
	}
	if a.Log != nil && n > 0 {
		a.Log.Info("capsule refresh scan enqueued builds", "count", n)
	}
	return nil
}

// CleanupExpired deletes expired capsule rows in bounded batches.
func (a *Activities) CleanupExpired(ctx context.Context) error {
	if a == nil || a.Maintenance == nil {
		return fmt.Errorf("capsulebuild: activity not configured")
	}
	n, err := a.Maintenance.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if a.Log != nil && n > 0 {
		a.Log.Info("expired capsules deleted", "count", n)
	}
	return nil
}
