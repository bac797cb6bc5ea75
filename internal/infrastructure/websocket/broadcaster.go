package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/lllypuk/taskboard/internal/domain/event"
	"github.com/lllypuk/taskboard/internal/domain/id"
	"github.com/lllypuk/taskboard/internal/domain/task"
)

// EventBus is the subscription side of the event bus.
type EventBus interface {
	Subscribe(eventType string, handler func(ctx context.Context, event event.DomainEvent) error) error
}

// PayloadProvider is implemented by events received off the wire, which
// carry their payload already encoded.
type PayloadProvider interface {
	Payload() json.RawMessage
}

// OutboundMessage is one frame of the board feed.
type OutboundMessage struct {
	Type    string          `json:"type"`
	EventID string          `json:"event_id,omitempty"`
	BoardID string          `json:"board_id"`
	TaskID  string          `json:"task_id"`
	UserID  string          `json:"user_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var errNoBoard = errors.New("event is not scoped to a board")

// Broadcaster relays task events from the bus to the followers of the
// task's board.
type Broadcaster struct {
	hub        *Hub
	bus        EventBus
	logger     *slog.Logger
	eventTypes []string

	mu      sync.Mutex
	started bool
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithBroadcasterLogger sets the logger.
func WithBroadcasterLogger(logger *slog.Logger) BroadcasterOption {
	return func(b *Broadcaster) { b.logger = logger }
}

// WithEventTypes replaces DefaultEventTypes.
func WithEventTypes(eventTypes []string) BroadcasterOption {
	return func(b *Broadcaster) { b.eventTypes = eventTypes }
}

// DefaultEventTypes are the task lifecycle events.
func DefaultEventTypes() []string {
	return []string{
		task.EventTypeTaskCreated,
		task.EventTypeTaskUpdated,
		task.EventTypeTaskDeleted,
	}
}

// NewBroadcaster creates a broadcaster. Nothing is relayed until Start.
func NewBroadcaster(hub *Hub, bus EventBus, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		hub:        hub,
		bus:        bus,
		logger:     slog.Default(),
		eventTypes: DefaultEventTypes(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start subscribes to every configured event type. Calling it again after a
// successful Start does nothing; after a failed one it retries.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	for _, eventType := range b.eventTypes {
		if err := b.bus.Subscribe(eventType, b.HandleEvent); err != nil {
			b.logger.ErrorContext(ctx, "failed to subscribe to event",
				slog.String("event_type", eventType),
				slog.String("error", err.Error()),
			)
			return err
		}
	}
	b.started = true

	b.logger.InfoContext(ctx, "websocket broadcaster started", slog.Int("event_types", len(b.eventTypes)))
	return nil
}

// IsRunning reports whether Start has succeeded.
func (b *Broadcaster) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// HandleEvent sends evt to the followers of its board. Events without a
// board are dropped.
func (b *Broadcaster) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	boardID, frame, err := encodeFrame(evt)
	if errors.Is(err, errNoBoard) {
		b.logger.DebugContext(ctx, "event not routable", slog.String("event_type", evt.EventType()))
		return nil
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to marshal websocket message",
			slog.String("event_type", evt.EventType()),
			slog.String("error", err.Error()),
		)
		return err
	}

	b.hub.BroadcastToBoard(boardID, frame)
	return nil
}

func encodeFrame(evt event.DomainEvent) (id.ID, []byte, error) {
	scoped, ok := evt.(event.Scoped)
	if !ok {
		return "", nil, errNoBoard
	}
	boardID, err := id.Parse(scoped.ScopeID())
	if err != nil {
		return "", nil, errNoBoard
	}

	msg := OutboundMessage{
		Type:    evt.EventType(),
		BoardID: boardID.String(),
		TaskID:  evt.AggregateID(),
		UserID:  evt.Metadata().UserID,
	}
	if identified, isIdentified := evt.(event.Identified); isIdentified {
		msg.EventID = identified.EventID()
	}

	if pp, isEncoded := evt.(PayloadProvider); isEncoded {
		msg.Data = pp.Payload()
	} else if msg.Data, err = json.Marshal(evt); err != nil {
		return "", nil, err
	}

	frame, err := json.Marshal(msg)
	return boardID, frame, err
}
