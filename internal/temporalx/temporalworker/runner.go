package temporalworker

import (
	"context"
	"fmt"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/temporalx"
	"github.com/playalore/playalore/internal/temporalx/capsulebuild"
	"github.com/playalore/playalore/internal/utils"
)

// Runner owns one Temporal worker polling the capsule task queue.
type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	acts *capsulebuild.Activities
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, acts *capsulebuild.Activities) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if acts == nil || acts.Builder == nil || acts.Maintenance == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{log: log, tc: tc, acts: acts}, nil
}

// Start brings the worker up with bounded retry and stops it when ctx
// is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	cfg := temporalx.LoadConfig()
	if r.log != nil {
		r.log.Info("Starting Temporal worker", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)
	}

	maxWait := 60 * time.Second
	deadline := time.Now().Add(maxWait)
	backoff := 250 * time.Millisecond

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker(cfg)
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			if r.log != nil {
				r.log.Info("Temporal worker started", "task_queue", cfg.TaskQueue, "attempts", attempt)
			}
			return nil
		}
		w.Stop()

		if time.Now().After(deadline) {
			return startErr
		}
		if r.log != nil {
			r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)
		}
		time.Sleep(backoff)
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}
}

func (r *Runner) newWorker(cfg temporalx.Config) worker.Worker {
	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 4, r.log)
	if concurrency < 1 {
		concurrency = 1
	}

	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	w.RegisterWorkflowWithOptions(capsulebuild.BuildWorkflow, workflow.RegisterOptions{Name: capsulebuild.WorkflowBuild})
	w.RegisterWorkflowWithOptions(capsulebuild.MaintenanceWorkflow, workflow.RegisterOptions{Name: capsulebuild.WorkflowMaintenance})
	w.RegisterActivity(r.acts.BuildCapsule)
	w.RegisterActivity(r.acts.RefreshScan)
	w.RegisterActivity(r.acts.CleanupExpired)
	return w
}
