// Package main is the entry point for the event-logger GraphQL server.
//
// main stays minimal: read configuration, build the logger and the identity
// verifier, then hand everything to internal/server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/event-logger/internal/config"
	"github.com/sakif/event-logger/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// Load fails on the first start with a list of every bad variable.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	// Human-readable text locally, JSON in production for the log pipeline.
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var logHandler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		logHandler = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	// === 3. IDENTITY ===
	verifier, err := server.NewVerifier(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create token verifier", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger, verifier)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
