// Package eventbus provides event bus implementations for asynchronous event delivery.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/taskboard/internal/domain/event"
)

// Default bus settings.
const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultBackoffFactor  = 2.0
	defaultChannelPrefix  = "events:"
	defaultMaxInFlight    = 64
)

var errShutdown = errors.New("event bus shut down")

// EventHandler is a function that handles domain events. It is an alias so
// consumers can declare Subscribe with a plain func type.
type EventHandler = func(ctx context.Context, event event.DomainEvent) error

// FailureHandler receives events whose handler failed after all retries.
type FailureHandler interface {
	Handle(ctx context.Context, evt event.DomainEvent, err error)
}

// eventEnvelope is the wire form of an event on a Redis channel.
type eventEnvelope struct {
	ID            string          `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	ScopeID       string          `json:"scope_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Metadata      event.Metadata  `json:"metadata"`
	Payload       json.RawMessage `json:"payload"`
}

// newEnvelope keeps the event's own id when it has one.
func newEnvelope(evt event.DomainEvent) (eventEnvelope, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return eventEnvelope{}, fmt.Errorf("marshal %s payload: %w", evt.EventType(), err)
	}

	env := eventEnvelope{
		EventType:     evt.EventType(),
		AggregateID:   evt.AggregateID(),
		AggregateType: evt.AggregateType(),
		OccurredAt:    evt.OccurredAt(),
		Metadata:      evt.Metadata(),
		Payload:       payload,
	}
	if identified, ok := evt.(event.Identified); ok {
		env.ID = identified.EventID()
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if scoped, ok := evt.(event.Scoped); ok {
		env.ScopeID = scoped.ScopeID()
	}
	return env, nil
}

// ReceivedEvent is a DomainEvent reconstructed from Redis.
type ReceivedEvent struct {
	envelope eventEnvelope
}

func (e *ReceivedEvent) EventID() string          { return e.envelope.ID }
func (e *ReceivedEvent) EventType() string        { return e.envelope.EventType }
func (e *ReceivedEvent) AggregateID() string      { return e.envelope.AggregateID }
func (e *ReceivedEvent) AggregateType() string    { return e.envelope.AggregateType }
func (e *ReceivedEvent) OccurredAt() time.Time    { return e.envelope.OccurredAt }
func (e *ReceivedEvent) Metadata() event.Metadata { return e.envelope.Metadata }

// ScopeID returns the board the event belongs to, empty when unscoped.
func (e *ReceivedEvent) ScopeID() string { return e.envelope.ScopeID }

// Payload returns the raw JSON payload of the event.
func (e *ReceivedEvent) Payload() json.RawMessage { return e.envelope.Payload }

// MarshalJSON returns the original payload, so a received event can be
// published again unchanged.
func (e *ReceivedEvent) MarshalJSON() ([]byte, error) {
	if len(e.envelope.Payload) == 0 {
		return []byte("null"), nil
	}
	return e.envelope.Payload, nil
}

// RetryConfig configures retry behavior for event handling.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     defaultMaxRetries,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		BackoffFactor:  defaultBackoffFactor,
	}
}

// next returns the wait after backoff.
func (c RetryConfig) next(backoff time.Duration) time.Duration {
	return min(time.Duration(float64(backoff)*c.BackoffFactor), c.MaxBackoff)
}

// RedisEventBus implements event.Bus over Redis Pub/Sub. Handlers run on
// their own goroutines, at most MaxInFlight at a time; a full pool stops the
// receive loop until a handler returns.
type RedisEventBus struct {
	client        *redis.Client
	logger        *slog.Logger
	retryConfig   RetryConfig
	channelPrefix string
	onFailure     FailureHandler
	maxInFlight   int

	handlersMu sync.RWMutex
	handlers   map[string][]EventHandler

	mu      sync.Mutex
	current *run
	active  sync.WaitGroup
}

// run is one Start call.
type run struct {
	stop context.CancelCauseFunc
	done chan struct{}
}

// Option configures a RedisEventBus.
type Option func(*RedisEventBus)

// WithLogger sets the logger for the event bus.
func WithLogger(logger *slog.Logger) Option {
	return func(b *RedisEventBus) {
		b.logger = logger
	}
}

// WithRetryConfig sets the retry configuration for event handling.
func WithRetryConfig(config RetryConfig) Option {
	return func(b *RedisEventBus) {
		b.retryConfig = config
	}
}

// WithChannelPrefix sets a prefix for Redis channel names.
func WithChannelPrefix(prefix string) Option {
	return func(b *RedisEventBus) {
		b.channelPrefix = prefix
	}
}

// WithFailureHandler sets where events go after retries are exhausted.
func WithFailureHandler(h FailureHandler) Option {
	return func(b *RedisEventBus) {
		b.onFailure = h
	}
}

// WithMaxInFlight bounds concurrently running handlers. Values below one
// keep the default.
func WithMaxInFlight(n int) Option {
	return func(b *RedisEventBus) {
		if n > 0 {
			b.maxInFlight = n
		}
	}
}

// NewRedisEventBus creates a new Redis-based event bus.
func NewRedisEventBus(client *redis.Client, opts ...Option) *RedisEventBus {
	b := &RedisEventBus{
		client:        client,
		handlers:      make(map[string][]EventHandler),
		logger:        slog.Default(),
		retryConfig:   DefaultRetryConfig(),
		channelPrefix: defaultChannelPrefix,
		maxInFlight:   defaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends evt to the channel of its type. Delivery is fire and forget:
// a message published while no instance is subscribed is lost.
func (b *RedisEventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	if evt == nil {
		return errors.New("event cannot be nil")
	}

	env, err := newEnvelope(evt)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", env.EventType, err)
	}

	channel := b.channelPrefix + env.EventType
	if err = b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", env.EventType, channel, err)
	}

	b.logger.DebugContext(ctx, "event published",
		slog.String("event_id", env.ID),
		slog.String("event_type", env.EventType),
		slog.String("aggregate_id", env.AggregateID),
		slog.String("channel", channel),
	)
	return nil
}

// Subscribe registers an event handler for a specific event type.
// Handlers must be registered before Start.
func (b *RedisEventBus) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return errors.New("event type cannot be empty")
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// HandlerCount returns the number of handlers registered for an event type.
func (b *RedisEventBus) HandlerCount(eventType string) int {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return len(b.handlers[eventType])
}

func (b *RedisEventBus) channels() []string {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()

	channels := make([]string, 0, len(b.handlers))
	for eventType := range b.handlers {
		channels = append(channels, b.channelPrefix+eventType)
	}
	return channels
}

// Start consumes the subscribed channels until Shutdown, which makes it
// return nil, or until ctx ends, which returns ctx.Err().
func (b *RedisEventBus) Start(ctx context.Context) error {
	runCtx, stop := context.WithCancelCause(ctx)
	defer stop(nil)

	b.mu.Lock()
	if b.current != nil {
		b.mu.Unlock()
		return errors.New("event bus is already running")
	}
	current := &run{stop: stop, done: make(chan struct{})}
	b.current = current
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.current = nil
		b.mu.Unlock()
		close(current.done)
	}()

	err := b.consume(runCtx)
	if errors.Is(context.Cause(runCtx), errShutdown) {
		return nil
	}
	return err
}

func (b *RedisEventBus) consume(ctx context.Context) error {
	channels := b.channels()
	if len(channels) == 0 {
		b.logger.WarnContext(ctx, "starting event bus with no subscriptions")
		<-ctx.Done()
		return ctx.Err()
	}

	pubsub := b.client.Subscribe(ctx, channels...)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %d channels: %w", len(channels), err)
	}

	b.logger.InfoContext(ctx, "event bus started",
		slog.Int("channel_count", len(channels)),
		slog.Any("channels", channels),
	)

	slots := make(chan struct{}, b.maxInFlight)
	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.InfoContext(ctx, "event bus stopping", slog.String("cause", context.Cause(ctx).Error()))
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				b.logger.WarnContext(ctx, "message channel closed")
				return nil
			}
			if !b.dispatch(ctx, msg, slots) {
				return ctx.Err()
			}
		}
	}
}

// dispatch decodes msg and runs its handlers. It reports false if ctx ended
// while waiting for a free slot.
func (b *RedisEventBus) dispatch(ctx context.Context, msg *redis.Message, slots chan struct{}) bool {
	var env eventEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		b.logger.ErrorContext(ctx, "failed to unmarshal event",
			slog.String("channel", msg.Channel),
			slog.String("error", err.Error()),
		)
		return true
	}

	b.handlersMu.RLock()
	handlers := b.handlers[env.EventType]
	b.handlersMu.RUnlock()

	evt := &ReceivedEvent{envelope: env}
	for i, handler := range handlers {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return false
		}

		b.active.Add(1)
		go func() {
			defer func() {
				<-slots
				b.active.Done()
			}()
			b.deliver(ctx, handler, evt, i)
		}()
	}
	return true
}

// deliver runs handler with exponential backoff. Handlers see a context that
// outlives Shutdown; retries stop when the bus does. Either way an event that
// never succeeded goes to the failure handler.
func (b *RedisEventBus) deliver(ctx context.Context, handler EventHandler, evt event.DomainEvent, index int) {
	handlerCtx := context.WithoutCancel(ctx)
	attrs := []any{
		slog.String("event_type", evt.EventType()),
		slog.String("aggregate_id", evt.AggregateID()),
		slog.Int("handler_index", index),
	}

	var err error
	backoff := b.retryConfig.InitialBackoff
retry:
	for attempt := 0; ; attempt++ {
		if err = handler(handlerCtx, evt); err == nil {
			return
		}
		if attempt >= b.retryConfig.MaxRetries {
			b.logger.ErrorContext(handlerCtx, "event handler failed after all retries",
				append(attrs, slog.Int("max_retries", b.retryConfig.MaxRetries), slog.String("error", err.Error()))...)
			break
		}

		b.logger.WarnContext(handlerCtx, "event handler failed",
			append(attrs, slog.Int("attempt", attempt), slog.String("error", err.Error()))...)

		select {
		case <-ctx.Done():
			b.logger.WarnContext(handlerCtx, "handler retry cancelled", attrs...)
			break retry
		case <-time.After(backoff):
		}
		backoff = b.retryConfig.next(backoff)
	}

	if b.onFailure != nil {
		b.onFailure.Handle(handlerCtx, evt, err)
	}
}

// Shutdown stops a running Start and waits for it and for in-flight
// handlers. It is a no-op when the bus is not running.
func (b *RedisEventBus) Shutdown() error {
	b.mu.Lock()
	current := b.current
	b.mu.Unlock()

	if current != nil {
		current.stop(errShutdown)
		<-current.done
	}
	b.active.Wait()
	return nil
}

// IsRunning reports whether Start is consuming.
func (b *RedisEventBus) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current != nil
}

var _ event.Bus = (*RedisEventBus)(nil)
