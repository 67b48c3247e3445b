package capsulebuild

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/playalore/playalore/internal/styling"
)

// Workflow and activity names registered on the task queue.
const (
	WorkflowBuild       = "capsule_build"
	WorkflowMaintenance = "capsule_maintenance"

	ActivityBuild        = "BuildCapsule"
	ActivityRefreshScan  = "RefreshScan"
	ActivityCleanup      = "CleanupExpired"
)

// BuildWorkflow runs one asynchronous capsule build. The workflow id is
// the capsule lock key, so a duplicate enqueue while one is running is
// rejected by the server and never reaches an activity.
func BuildWorkflow(ctx workflow.Context, req styling.BuildRequest) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})
	return workflow.ExecuteActivity(ctx, ActivityBuild, req).Get(ctx, nil)
}

// MaintenanceWorkflow is the cron sweep: enqueue refreshes for capsules
// expiring inside the refresh window, then delete expired rows in
// batches. Either half failing should not starve the other, so both run
// even when the first errors.
func MaintenanceWorkflow(ctx workflow.Context) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumAttempts:    2,
		},
	})

	refreshErr := workflow.ExecuteActivity(ctx, ActivityRefreshScan).Get(ctx, nil)
	cleanupErr := workflow.ExecuteActivity(ctx, ActivityCleanup).Get(ctx, nil)
	if refreshErr != nil {
		return refreshErr
	}
	return cleanupErr
}
