// Package main provides the API server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lllypuk/taskboard/internal/config"
	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
)

// drainPause lets the hub and bus goroutines observe cancellation before
// the container closes their connections.
const drainPause = 100 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if runErr := run(cfg, logger); runErr != nil {
		logger.Error("api server stopped", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
}

// run serves the API until a shutdown signal arrives or the listener fails.
func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting taskboard API server",
		slog.String("version", "0.1.0"),
		slog.String("environment", cfg.Environment()),
	)

	container, err := NewContainer(cfg, WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// the hub must run before the bus delivers its first broadcast
	container.StartHub(ctx)
	if err = container.StartEventBus(ctx); err != nil {
		_ = container.Close()
		return fmt.Errorf("start event bus: %w", err)
	}

	server := httpserver.NewServer(SetupRoutes(container).Echo(), httpserver.ServerConfig{
		Addr:            cfg.Server.Address(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	serveErr := server.Run(ctx)
	if ctx.Err() != nil {
		logger.Info("shutdown signal received")
	}

	return errors.Join(serveErr, shutdown(container, stop, logger))
}

// shutdown cancels background services and releases the container.
func shutdown(container *Container, stop context.CancelFunc, logger *slog.Logger) error {
	stop()
	time.Sleep(drainPause)

	if err := container.Close(); err != nil {
		return fmt.Errorf("close container: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}
