package task

import (
	"context"
	"log/slog"

	"github.com/lllypuk/taskboard/internal/domain/event"
)

// publish is best-effort: the state change is already committed.
func publish(ctx context.Context, bus event.Bus, logger *slog.Logger, evt event.DomainEvent) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, evt); err != nil {
		logger.WarnContext(ctx, "failed to publish event",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID()),
			slog.String("error", err.Error()),
		)
	}
}
