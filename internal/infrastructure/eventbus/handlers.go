package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/taskboard/internal/domain/event"
	"github.com/lllypuk/taskboard/internal/domain/task"
)

// Default dead letter queue configuration.
const (
	deadLetterQueueKey    = "events:dead_letter"
	parkedKeySuffix       = ":parked"
	defaultMaxDeadLetters = 1000
	defaultDeadLetterRead = 10
	maxPayloadLogLength   = 500
)

// PayloadEvent is an interface for events that carry raw JSON payload.
// This is implemented by ReceivedEvent for events received from Redis.
type PayloadEvent interface {
	event.DomainEvent
	Payload() json.RawMessage
}

// TaskEventTypes lists every event type published for tasks.
func TaskEventTypes() []string {
	return []string{
		task.EventTypeTaskCreated,
		task.EventTypeTaskUpdated,
		task.EventTypeTaskDeleted,
	}
}

// LoggingHandler writes every event it receives to the debug log.
type LoggingHandler struct {
	logger *slog.Logger
}

func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{logger: logger}
}

// Handle never fails.
func (h *LoggingHandler) Handle(ctx context.Context, evt event.DomainEvent) error {
	if !h.logger.Enabled(ctx, slog.LevelDebug) {
		return nil
	}
	h.logger.DebugContext(ctx, "domain event", eventAttrs(evt)...)
	return nil
}

// AsEventHandler adapts Handle to EventHandler.
func (h *LoggingHandler) AsEventHandler() EventHandler {
	return h.Handle
}

func eventAttrs(evt event.DomainEvent) []any {
	attrs := []any{
		slog.String("event_type", evt.EventType()),
		slog.String("aggregate_id", evt.AggregateID()),
		slog.String("aggregate_type", evt.AggregateType()),
		slog.Time("occurred_at", evt.OccurredAt()),
	}
	optional := func(key, value string) {
		if value != "" {
			attrs = append(attrs, slog.String(key, value))
		}
	}

	if identified, ok := evt.(event.Identified); ok {
		optional("event_id", identified.EventID())
	}
	optional("user_id", evt.Metadata().UserID)
	optional("correlation_id", evt.Metadata().CorrelationID)
	if scoped, ok := evt.(event.Scoped); ok {
		optional("board_id", scoped.ScopeID())
	}
	if pe, ok := evt.(PayloadEvent); ok {
		payload := string(pe.Payload())
		if len(payload) > maxPayloadLogLength {
			payload = payload[:maxPayloadLogLength] + "..."
		}
		optional("payload", payload)
	}
	return attrs
}

// DeadLetterHandler stores failed events in Redis for later analysis.
type DeadLetterHandler struct {
	client        *redis.Client
	logger        *slog.Logger
	queueKey      string
	maxDeadLetter int64
}

// DeadLetterEntry represents a failed event stored in the dead letter queue.
type DeadLetterEntry struct {
	ID            string          `json:"id,omitempty"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	ScopeID       string          `json:"scope_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Metadata      event.Metadata  `json:"metadata"`
	Error         string          `json:"error"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Timestamp     int64           `json:"timestamp"`

	// Attempts counts replays that failed to publish.
	Attempts int `json:"attempts,omitempty"`
}

// Event rebuilds the failed event so it can be published again.
func (e DeadLetterEntry) Event() event.DomainEvent {
	return &ReceivedEvent{envelope: eventEnvelope{
		ID:            e.ID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		ScopeID:       e.ScopeID,
		OccurredAt:    e.OccurredAt,
		Metadata:      e.Metadata,
		Payload:       e.Payload,
	}}
}

// DeadLetterHandlerOption configures DeadLetterHandler.
type DeadLetterHandlerOption func(*DeadLetterHandler)

// WithDeadLetterQueueKey sets a custom key for the dead letter queue.
func WithDeadLetterQueueKey(key string) DeadLetterHandlerOption {
	return func(h *DeadLetterHandler) {
		h.queueKey = key
	}
}

// WithDeadLetterLogger sets the logger for DeadLetterHandler.
func WithDeadLetterLogger(logger *slog.Logger) DeadLetterHandlerOption {
	return func(h *DeadLetterHandler) {
		h.logger = logger
	}
}

// WithMaxDeadLetters sets the maximum number of entries to keep in the queue.
func WithMaxDeadLetters(maxEntries int64) DeadLetterHandlerOption {
	return func(h *DeadLetterHandler) {
		h.maxDeadLetter = maxEntries
	}
}

// NewDeadLetterHandler creates a new DeadLetterHandler.
func NewDeadLetterHandler(client *redis.Client, opts ...DeadLetterHandlerOption) *DeadLetterHandler {
	h := &DeadLetterHandler{
		client:        client,
		logger:        slog.Default(),
		queueKey:      deadLetterQueueKey,
		maxDeadLetter: defaultMaxDeadLetters,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// NewDeadLetterEntry captures evt and the error that exhausted its retries.
func NewDeadLetterEntry(evt event.DomainEvent, err error) DeadLetterEntry {
	entry := DeadLetterEntry{
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		OccurredAt:    evt.OccurredAt(),
		Metadata:      evt.Metadata(),
		Error:         err.Error(),
		Timestamp:     time.Now().Unix(),
	}
	if identified, ok := evt.(event.Identified); ok {
		entry.ID = identified.EventID()
	}
	if scoped, ok := evt.(event.Scoped); ok {
		entry.ScopeID = scoped.ScopeID()
	}
	if pe, ok := evt.(PayloadEvent); ok {
		entry.Payload = pe.Payload()
	}
	return entry
}

// Handle stores a failed event in the dead letter queue. It implements
// FailureHandler and only logs its own errors.
func (h *DeadLetterHandler) Handle(ctx context.Context, evt event.DomainEvent, err error) {
	if pushErr := h.push(ctx, h.queueKey, NewDeadLetterEntry(evt, err)); pushErr != nil {
		h.logger.ErrorContext(ctx, "failed to dead-letter event",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID()),
			slog.String("original_error", err.Error()),
			slog.String("error", pushErr.Error()),
		)
		return
	}

	h.logger.ErrorContext(ctx, "event moved to dead letter queue",
		slog.String("event_type", evt.EventType()),
		slog.String("aggregate_id", evt.AggregateID()),
		slog.String("original_error", err.Error()),
	)
}

// GetDeadLetters retrieves the newest entries from the dead letter queue.
func (h *DeadLetterHandler) GetDeadLetters(ctx context.Context, count int64) ([]DeadLetterEntry, error) {
	if count <= 0 {
		count = defaultDeadLetterRead
	}

	data, err := h.client.LRange(ctx, h.queueKey, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letters: %w", err)
	}

	entries := make([]DeadLetterEntry, 0, len(data))
	for _, d := range data {
		var entry DeadLetterEntry
		if unmarshalErr := json.Unmarshal([]byte(d), &entry); unmarshalErr != nil {
			h.logger.WarnContext(ctx, "failed to unmarshal dead letter entry",
				slog.String("error", unmarshalErr.Error()),
			)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// QueueLength returns the number of entries in the dead letter queue.
func (h *DeadLetterHandler) QueueLength(ctx context.Context) (int64, error) {
	return h.client.LLen(ctx, h.queueKey).Result()
}

// ParkedLength returns the number of entries that gave up on replay.
func (h *DeadLetterHandler) ParkedLength(ctx context.Context) (int64, error) {
	return h.client.LLen(ctx, h.parkedKey()).Result()
}

// Pop removes and returns the oldest entry. It returns nil when the queue is empty.
func (h *DeadLetterHandler) Pop(ctx context.Context) (*DeadLetterEntry, error) {
	data, err := h.client.RPop(ctx, h.queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil //nolint:nilnil // empty queue is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop dead letter: %w", err)
	}

	var entry DeadLetterEntry
	if unmarshalErr := json.Unmarshal([]byte(data), &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal dead letter entry: %w", unmarshalErr)
	}
	return &entry, nil
}

// Requeue puts an entry back at the head of the queue for a later attempt.
func (h *DeadLetterHandler) Requeue(ctx context.Context, entry DeadLetterEntry) error {
	return h.push(ctx, h.queueKey, entry)
}

// Park moves an entry to the parked list, where it is kept for inspection only.
func (h *DeadLetterHandler) Park(ctx context.Context, entry DeadLetterEntry) error {
	return h.push(ctx, h.parkedKey(), entry)
}

func (h *DeadLetterHandler) push(ctx context.Context, key string, entry DeadLetterEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter entry: %w", err)
	}

	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, 0, h.maxDeadLetter-1)
	if _, execErr := pipe.Exec(ctx); execErr != nil {
		return fmt.Errorf("failed to push dead letter to %s: %w", key, execErr)
	}
	return nil
}

func (h *DeadLetterHandler) parkedKey() string {
	return h.queueKey + parkedKeySuffix
}

// Subscriber registers handlers for event types.
type Subscriber interface {
	Subscribe(eventType string, handler EventHandler) error
}

// Register subscribes handler to each of eventTypes.
func Register(bus Subscriber, eventTypes []string, handler EventHandler) error {
	for _, eventType := range eventTypes {
		if err := bus.Subscribe(eventType, handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
		}
	}
	return nil
}
