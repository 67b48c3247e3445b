package main

import (
	"context"
	"fmt"
	"os"

	"github.com/playalore/playalore/internal/app"
	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/tools"
)

const version = "1.0.0"

// mcpserver exposes the tool surface over stdio for MCP clients. The
// log mode defaults to production because stdout belongs to the
// protocol; zap writes to stderr either way.
func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "production"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application, err := app.New(log)
	if err != nil {
		log.Fatal("App init failed", "error", err)
	}
	defer application.Close(context.Background())

	if err := tools.ServeStdio(application.ToolHandlers, version); err != nil {
		log.Fatal("MCP server exited", "error", err)
	}
}
