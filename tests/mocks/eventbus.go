package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/lllypuk/taskboard/internal/domain/event"
)

// MockEventBus records published events in memory.
type MockEventBus struct {
	mu       sync.Mutex
	events   []event.DomainEvent
	failNext error
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{}
}

// Publish records evt, or returns the error armed by FailNext.
func (b *MockEventBus) Publish(_ context.Context, evt event.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.failNext; err != nil {
		b.failNext = nil
		return err
	}
	b.events = append(b.events, evt)
	return nil
}

// FailNext makes the next Publish return err without recording.
func (b *MockEventBus) FailNext(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}

// Events returns the recorded events in publish order.
func (b *MockEventBus) Events() []event.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.events)
}

// Count returns the number of recorded events.
func (b *MockEventBus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// OfType returns the recorded events of one type.
func (b *MockEventBus) OfType(eventType string) []event.DomainEvent {
	return slices.DeleteFunc(b.Events(), func(evt event.DomainEvent) bool {
		return evt.EventType() != eventType
	})
}
