package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	// Close waits for in-flight asynchronous handlers.
	Close()
}

type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
	async     bool
	inflight  sync.WaitGroup
}

// NewInMemoryDispatcher creates a dispatcher. When async is true handlers run on their own
// goroutine, detached from the publisher's context cancellation.
func NewInMemoryDispatcher(logger *zap.Logger, async bool) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
		async:     async,
	}
}

// Publish invokes handlers for the given event. Handler errors are logged, never returned.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}
	if !d.async {
		d.run(ctx, event, handlers)
		return nil
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.run(context.WithoutCancel(ctx), event, handlers)
	}()
	return nil
}

func (d *inMemoryDispatcher) run(ctx context.Context, event Event, handlers []EventHandler) {
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_number", event.TicketNumber),
				zap.Error(err))
		}
	}
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *inMemoryDispatcher) Close() {
	d.inflight.Wait()
}
