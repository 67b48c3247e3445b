package temporalx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/styling"
	"github.com/playalore/playalore/internal/temporalx/capsulebuild"
)

// Enqueuer starts capsule build workflows. It satisfies
// styling.BuildEnqueuer so the fast-path fallback and the maintenance
// sweep share one entry point.
type Enqueuer struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	builder   *styling.Builder
	taskQueue string
}

func NewEnqueuer(tc temporalsdkclient.Client, builder *styling.Builder, baseLog *logger.Logger) *Enqueuer {
	return &Enqueuer{
		log:       baseLog.With("service", "CapsuleEnqueuer"),
		tc:        tc,
		builder:   builder,
		taskQueue: LoadConfig().TaskQueue,
	}
}

// EnqueueCapsuleBuild starts an async build keyed on the capsule lock
// key. A build already running for the same key is not an error; the
// second enqueue is dropped.
func (e *Enqueuer) EnqueueCapsuleBuild(ctx context.Context, req styling.BuildRequest) error {
	if e == nil || e.tc == nil {
		return fmt.Errorf("temporal not configured")
	}
	key, err := e.builder.ResolveKey(ctx, req)
	if err != nil {
		return err
	}

	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        key.LockKey(),
		TaskQueue: e.taskQueue,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	_, err = e.tc.ExecuteWorkflow(ctx, opts, capsulebuild.WorkflowBuild, req)
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			e.log.Debug("capsule build already enqueued", "workflow_id", key.LockKey())
			return nil
		}
		return fmt.Errorf("enqueue capsule build: %w", err)
	}
	e.log.Info("capsule build enqueued", "workflow_id", key.LockKey())
	return nil
}

// StartMaintenanceCron schedules the hourly maintenance sweep. Starting
// it again while the cron exists is a no-op.
func StartMaintenanceCron(ctx context.Context, tc temporalsdkclient.Client, log *logger.Logger) error {
	if tc == nil {
		return nil
	}
	cfg := LoadConfig()
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:           "capsule-maintenance",
		TaskQueue:    cfg.TaskQueue,
		CronSchedule: "0 * * * *",
	}
	_, err := tc.ExecuteWorkflow(ctx, opts, capsulebuild.WorkflowMaintenance)
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			return nil
		}
		return fmt.Errorf("start maintenance cron: %w", err)
	}
	if log != nil {
		log.Info("capsule maintenance cron scheduled", "task_queue", cfg.TaskQueue)
	}
	return nil
}
