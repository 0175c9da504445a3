package events

import (
	"context"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans events out to subscribed handlers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// NewInMemoryDispatcher returns a synchronous in-process dispatcher. All
// subscription happens at startup, before the first Publish.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{subs: make(map[EventType][]EventHandler)}
}

type inMemoryDispatcher struct {
	mu   sync.RWMutex
	subs map[EventType][]EventHandler
}

// Publish invokes every handler subscribed to the event's type, in
// subscription order. A failing handler does not block the rest; delivery
// is best effort.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := d.subs[event.Type]
	d.mu.RUnlock()

	for _, handle := range handlers {
		_ = handle(ctx, event)
	}
	return nil
}

func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	d.subs[eventType] = append(d.subs[eventType], handler)
	d.mu.Unlock()
}
