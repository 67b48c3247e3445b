package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playalore/playalore/internal/app"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/server"
	"github.com/playalore/playalore/internal/temporalx"
	"github.com/playalore/playalore/internal/utils"

	"net/http"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer application.Close(context.Background())

	if application.Temporal != nil {
		if err := temporalx.StartMaintenanceCron(ctx, application.Temporal, log); err != nil {
			log.Warn("Maintenance cron scheduling failed", "error", err)
		}
	}

	router := server.NewRouter(server.RouterConfig{
		ToolHandlers: application.ToolHandlers,
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown failed", "error", err)
	}
}
