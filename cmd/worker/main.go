// Package main provides the worker service entry point.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/taskboard/internal/config"
	"github.com/lllypuk/taskboard/internal/infrastructure/eventbus"
	"github.com/lllypuk/taskboard/internal/infrastructure/metrics"
	"github.com/lllypuk/taskboard/internal/worker"
)

// Timeout constants for worker service.
const (
	redisPingTimeout      = 5 * time.Second
	metricsReadTimeout    = 5 * time.Second
	metricsShutdownPeriod = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting taskboard worker service",
		slog.String("version", "0.1.0"),
		slog.String("environment", cfg.Environment()),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	redisClient, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", slog.String("error", err.Error()))
		cancel()
		os.Exit(1) //nolint:gocritic // cancel() called before exit
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			logger.Error("failed to close Redis", slog.String("error", closeErr.Error()))
		}
	}()

	registry := newRegistry()
	replayer := newReplayer(cfg, redisClient, registry, logger)

	var wg sync.WaitGroup

	if cfg.EventBus.Replay.MetricsAddr != "" {
		server := newMetricsServer(cfg.EventBus.Replay.MetricsAddr, registry)

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("serving worker metrics", slog.String("addr", server.Addr))
			if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("metrics server error", slog.String("error", serveErr.Error()))
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), metricsShutdownPeriod)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if runErr := replayer.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("dead letter replay error", slog.String("error", runErr.Error()))
		}
	}()

	wg.Wait()

	logger.Info("worker service shutdown complete")
}

// newRegistry returns a registry with the runtime collectors.
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// newReplayer wires the replay worker over the same queue and channels the API uses.
func newReplayer(
	cfg *config.Config,
	client *redis.Client,
	registerer prometheus.Registerer,
	logger *slog.Logger,
) *worker.DeadLetterReplayer {
	queue := eventbus.NewDeadLetterHandler(
		client,
		eventbus.WithDeadLetterQueueKey(cfg.EventBus.DeadLetterKey),
		eventbus.WithMaxDeadLetters(cfg.EventBus.MaxDeadLetters),
		eventbus.WithDeadLetterLogger(logger),
	)
	bus := eventbus.NewRedisEventBus(
		client,
		eventbus.WithLogger(logger),
		eventbus.WithChannelPrefix(cfg.EventBus.ChannelPrefix),
		eventbus.WithMaxInFlight(cfg.EventBus.MaxInFlight),
	)

	return worker.NewDeadLetterReplayer(
		queue,
		bus,
		logger,
		replayConfig(cfg),
		metrics.NewReplayMetrics(registerer),
	)
}

// replayConfig maps the configuration file onto the worker settings.
func replayConfig(cfg *config.Config) worker.ReplayConfig {
	return worker.ReplayConfig{
		PollInterval: cfg.EventBus.Replay.PollInterval,
		BatchSize:    cfg.EventBus.Replay.BatchSize,
		MaxAttempts:  cfg.EventBus.Replay.MaxAttempts,
		Enabled:      cfg.EventBus.Replay.Enabled,
	}
}

func newMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
	}
}

// connectRedis opens the client and pings it.
func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, redisPingTimeout)
	defer pingCancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		_ = client.Close()
		return nil, pingErr
	}

	logger.InfoContext(ctx, "connected to Redis", slog.String("addr", cfg.Redis.Addr))

	return client, nil
}
