// Package worker contains background processes that run next to the API.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lllypuk/taskboard/internal/domain/event"
	"github.com/lllypuk/taskboard/internal/infrastructure/eventbus"
)

// Default replay worker configuration values.
const (
	defaultReplayPollInterval = 30 * time.Second
	defaultReplayBatchSize    = 50
	defaultReplayMaxAttempts  = 5
)

// DeadLetterQueue is the store the replay worker drains.
type DeadLetterQueue interface {
	Pop(ctx context.Context) (*eventbus.DeadLetterEntry, error)
	Requeue(ctx context.Context, entry eventbus.DeadLetterEntry) error
	Park(ctx context.Context, entry eventbus.DeadLetterEntry) error
	QueueLength(ctx context.Context) (int64, error)
}

// ReplayMetrics observes replay outcomes.
type ReplayMetrics interface {
	Replayed(eventType string)
	Requeued(eventType string)
	Parked(eventType string)
	SetQueueLength(n int64)
}

// ReplayConfig contains configuration for the replay worker.
type ReplayConfig struct {
	// PollInterval is the time between drains of the queue.
	PollInterval time.Duration

	// BatchSize is the maximum number of entries replayed per cycle.
	BatchSize int

	// MaxAttempts is how many failed publishes an entry survives before it is parked.
	MaxAttempts int

	// Enabled determines if the worker should run.
	Enabled bool
}

// DefaultReplayConfig returns sensible default configuration.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		PollInterval: defaultReplayPollInterval,
		BatchSize:    defaultReplayBatchSize,
		MaxAttempts:  defaultReplayMaxAttempts,
		Enabled:      true,
	}
}

// ReplayStats summarises one replay cycle.
type ReplayStats struct {
	Replayed int
	Requeued int
	Parked   int
}

// DeadLetterReplayer publishes dead-lettered events again so their
// subscribers get another chance. Delivery is at least once: subscribers
// that succeeded the first time see the event twice.
type DeadLetterReplayer struct {
	queue   DeadLetterQueue
	bus     event.Bus
	logger  *slog.Logger
	config  ReplayConfig
	metrics ReplayMetrics
}

// NewDeadLetterReplayer creates a new replay worker. Metrics may be nil.
func NewDeadLetterReplayer(
	queue DeadLetterQueue,
	bus event.Bus,
	logger *slog.Logger,
	config ReplayConfig,
	metrics ReplayMetrics,
) *DeadLetterReplayer {
	if logger == nil {
		logger = slog.Default()
	}

	return &DeadLetterReplayer{
		queue:   queue,
		bus:     bus,
		logger:  logger,
		config:  config,
		metrics: metrics,
	}
}

// Run drains the queue on every tick until ctx is cancelled.
func (w *DeadLetterReplayer) Run(ctx context.Context) error {
	if !w.config.Enabled {
		w.logger.InfoContext(ctx, "dead letter replay disabled")
		return nil
	}

	w.logger.InfoContext(ctx, "starting dead letter replay",
		slog.Duration("poll_interval", w.config.PollInterval),
		slog.Int("batch_size", w.config.BatchSize),
		slog.Int("max_attempts", w.config.MaxAttempts),
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "dead letter replay stopped")
			return ctx.Err()
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *DeadLetterReplayer) runCycle(ctx context.Context) {
	stats, err := w.ProcessBatch(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "dead letter replay cycle failed",
			slog.String("error", err.Error()),
		)
	}
	if stats.Replayed+stats.Requeued+stats.Parked > 0 {
		w.logger.InfoContext(ctx, "dead letter replay cycle",
			slog.Int("replayed", stats.Replayed),
			slog.Int("requeued", stats.Requeued),
			slog.Int("parked", stats.Parked),
		)
	}

	if w.metrics == nil {
		return
	}
	if n, lenErr := w.queue.QueueLength(ctx); lenErr == nil {
		w.metrics.SetQueueLength(n)
	}
}

// ProcessBatch replays up to BatchSize entries, oldest first. The first
// failed publish ends the cycle; the entry goes back to the queue.
func (w *DeadLetterReplayer) ProcessBatch(ctx context.Context) (ReplayStats, error) {
	var stats ReplayStats

	batch := w.config.BatchSize
	if batch <= 0 {
		batch = defaultReplayBatchSize
	}

	for range batch {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		entry, err := w.queue.Pop(ctx)
		if err != nil {
			return stats, fmt.Errorf("failed to pop dead letter: %w", err)
		}
		if entry == nil {
			return stats, nil
		}

		publishErr := w.bus.Publish(ctx, entry.Event())
		if publishErr == nil {
			stats.Replayed++
			w.observe(entry.EventType, ReplayMetrics.Replayed)
			w.logger.DebugContext(ctx, "dead letter replayed",
				slog.String("event_type", entry.EventType),
				slog.String("aggregate_id", entry.AggregateID),
			)
			continue
		}
		entry.Attempts++
		entry.Error = publishErr.Error()

		if entry.Attempts >= w.maxAttempts() {
			if parkErr := w.queue.Park(ctx, *entry); parkErr != nil {
				return stats, fmt.Errorf("failed to park dead letter: %w", parkErr)
			}
			stats.Parked++
			w.observe(entry.EventType, ReplayMetrics.Parked)
			w.logger.WarnContext(ctx, "dead letter parked after max attempts",
				slog.String("event_type", entry.EventType),
				slog.String("aggregate_id", entry.AggregateID),
				slog.Int("attempts", entry.Attempts),
				slog.String("error", entry.Error),
			)
			continue
		}

		if requeueErr := w.queue.Requeue(ctx, *entry); requeueErr != nil {
			return stats, fmt.Errorf("failed to requeue dead letter: %w", requeueErr)
		}
		stats.Requeued++
		w.observe(entry.EventType, ReplayMetrics.Requeued)

		return stats, nil
	}

	return stats, nil
}

func (w *DeadLetterReplayer) maxAttempts() int {
	if w.config.MaxAttempts <= 0 {
		return defaultReplayMaxAttempts
	}
	return w.config.MaxAttempts
}

func (w *DeadLetterReplayer) observe(eventType string, fn func(ReplayMetrics, string)) {
	if w.metrics != nil {
		fn(w.metrics, eventType)
	}
}
