package app

import (
	"sync"

	"github.com/fd1az/lp-deposit/business/deposit/domain"
)

// EventBus fans machine events out to any number of subscribers. The
// machine publishes with its mutex held, so subscribers inherit the
// sink contract: never block, never call back into the machine.
type EventBus struct {
	mu   sync.RWMutex
	subs []EventSink
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe adds a sink. Subscriptions cannot be removed; subscribers
// live as long as the process.
func (b *EventBus) Subscribe(sink EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sink)
}

// Publish delivers an event to every subscriber in subscription order.
func (b *EventBus) Publish(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sink := range b.subs {
		sink(ev)
	}
}
