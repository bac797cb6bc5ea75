// Package event defines domain events and the bus they are published on.
package event

import (
	"context"
	"time"
)

// DomainEvent is a fact about an aggregate, published after it is persisted.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
	Metadata() Metadata
}

// Scoped is implemented by events that belong to a board. Subscribers of the
// live feed are routed by ScopeID.
type Scoped interface {
	ScopeID() string
}

// Bus publishes events to subscribers in other goroutines or processes.
type Bus interface {
	Publish(ctx context.Context, event DomainEvent) error
}
