package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/playalore/playalore/internal/app"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/temporalx/temporalworker"
)

// worker runs the Temporal worker that executes async capsule builds
// and the maintenance sweep.
func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application, err := app.New(log)
	if err != nil {
		log.Fatal("App init failed", "error", err)
	}
	defer application.Close(context.Background())

	if application.Temporal == nil {
		log.Fatal("TEMPORAL_ADDRESS is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := temporalworker.NewRunner(log, application.Temporal, application.WorkerActivities())
	if err != nil {
		log.Fatal("Worker init failed", "error", err)
	}
	if err := runner.Start(ctx); err != nil {
		log.Fatal("Worker start failed", "error", err)
	}

	<-ctx.Done()
	log.Info("Worker shutting down")
}
