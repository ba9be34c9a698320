package events

import (
	"context"
	"errors"
	"sync"

	"furbabies_backend/platform/logger"
)

// InMemoryBus is a simple in-process event bus. Async handlers run on their
// own goroutine; handler errors are logged, never propagated to the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously.
// The publisher's context deadline does not bound the handlers.
func (b *InMemoryBus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		handler := h
		go func() {
			if err := handler.Handle(context.Background(), event); err != nil && b.log != nil {
				b.log.Error("event_handler_failed",
					"event", event.EventName(),
					"error", err.Error(),
				)
			}
		}()
	}
}

// PublishSync dispatches the event and waits for all handlers, joining errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Bus = (*InMemoryBus)(nil)
