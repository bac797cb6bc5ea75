package healthcheck

import (
	"context"
	"fmt"

	"github.com/lllypuk/taskboard/internal/infrastructure/httpserver"
)

// Default thresholds for the dead letter backlog.
const (
	defaultWarningThreshold = 1
)

// QueueLengther reports how many entries wait in a queue.
type QueueLengther interface {
	QueueLength(ctx context.Context) (int64, error)
}

// DeadLetterOption configures the dead letter check.
type DeadLetterOption func(*deadLetterCheck)

// WithWarningThreshold sets the backlog size at which the queue reports degraded.
func WithWarningThreshold(threshold int64) DeadLetterOption {
	return func(c *deadLetterCheck) {
		c.warningThreshold = threshold
	}
}

type deadLetterCheck struct {
	queue            QueueLengther
	warningThreshold int64
}

// DeadLetterQueue reports a degraded component once events that exhausted
// their retries pile up. It never makes the service not ready.
func DeadLetterQueue(queue QueueLengther, opts ...DeadLetterOption) httpserver.ComponentCheck {
	c := &deadLetterCheck{
		queue:            queue,
		warningThreshold: defaultWarningThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}

	return httpserver.ComponentCheck{
		Name:  "dead_letter_queue",
		Check: c.check,
	}
}

func (c *deadLetterCheck) check(ctx context.Context) error {
	count, err := c.queue.QueueLength(ctx)
	if err != nil {
		return fmt.Errorf("failed to get dead letter queue length: %w", err)
	}
	if count >= c.warningThreshold {
		return fmt.Errorf("dead letter queue: %d events", count)
	}
	return nil
}
