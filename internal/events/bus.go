package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine and must not block.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process publish/subscribe hub.
type Bus struct {
	mu     sync.RWMutex
	byType map[EventType][]subscription
	all    []subscription
	nextID uint64
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{byType: make(map[EventType][]subscription)}
}

// Subscribe registers handler for one event type. The returned function
// removes the subscription.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.byType[eventType] = append(b.byType[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.byType[eventType] = removeSubscription(b.byType[eventType], id)
	}
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = removeSubscription(b.all, id)
	}
}

// Publish stamps the event with an id and timestamp when missing and
// delivers it to type subscribers first, then to catch-all subscribers.
func (b *Bus) Publish(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	targets := make([]subscription, 0, len(b.byType[event.Type])+len(b.all))
	targets = append(targets, b.byType[event.Type]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, s := range targets {
		s.handler(event)
	}
	return event
}

// SubscriberCount returns the number of live subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.all)
	for _, subs := range b.byType {
		n += len(subs)
	}
	return n
}

func removeSubscription(subs []subscription, id uint64) []subscription {
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
