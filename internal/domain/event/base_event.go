package event

import (
	"time"

	"github.com/google/uuid"
)

// Identified is implemented by events that carry their own id. Transports
// keep it across republishing so consumers can drop duplicates.
type Identified interface {
	EventID() string
}

// BaseEvent holds the fields every domain event shares. Embed it and add the
// payload fields.
type BaseEvent struct {
	id            string
	eventType     string
	aggregateID   string
	aggregateType string
	occurredAt    time.Time
	metadata      Metadata
}

// NewBaseEvent stamps a new event id and the current UTC time.
func NewBaseEvent(eventType, aggregateID, aggregateType string, metadata Metadata) BaseEvent {
	return BaseEvent{
		id:            uuid.NewString(),
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		occurredAt:    time.Now().UTC(),
		metadata:      metadata,
	}
}

func (e BaseEvent) EventID() string       { return e.id }
func (e BaseEvent) EventType() string     { return e.eventType }
func (e BaseEvent) AggregateID() string   { return e.aggregateID }
func (e BaseEvent) AggregateType() string { return e.aggregateType }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) Metadata() Metadata    { return e.metadata }

// ActorID is the user that caused the event, empty for system events.
func (e BaseEvent) ActorID() string { return e.metadata.UserID }
