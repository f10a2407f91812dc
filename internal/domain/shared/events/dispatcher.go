package events

import (
	"context"
	"fmt"
	"sync"
)

// Handler processes a single domain event. Name must be stable across
// releases: it is half of the (event id, handler name) processed marker.
type Handler interface {
	// Name returns the unique handler name used for processed-event tracking
	Name() string

	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
}

// Dispatcher routes committed domain events to registered handlers.
// The registry is a static map from event type to an ordered handler list,
// built once at startup; handlers run sequentially in registration order.
//
// Dispatch stops at the first handler error and propagates it. Events are
// not re-queued here: recovery is re-dispatch of the same event (outbox
// replay), with handlers deduplicating via the processed-event guard.
type Dispatcher struct {
	handlers map[string][]Handler
	mu       sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
	}
}

// Register adds a handler for the given event type. Registration order is
// the invocation order within one event type.
func (d *Dispatcher) Register(eventType string, handler Handler) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], handler)
	return nil
}

// MustRegister adds a handler and panics on error. Intended for startup wiring.
func (d *Dispatcher) MustRegister(eventType string, handler Handler) {
	if err := d.Register(eventType, handler); err != nil {
		panic(err)
	}
}

// HandlersFor returns the registered handlers for an event type.
func (d *Dispatcher) HandlersFor(eventType string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[eventType]
}

// Dispatch invokes all handlers for each event, in raise order, awaiting
// completion before moving on. The first handler error aborts the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []DomainEvent) error {
	for _, event := range batch {
		if err := d.dispatchOne(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, event DomainEvent) error {
	d.mu.RLock()
	handlers := d.handlers[event.GetEventType()]
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := handler.Handle(ctx, event); err != nil {
			return fmt.Errorf("handler %s failed for event %s (%s): %w",
				handler.Name(), event.GetEventID(), event.GetEventType(), err)
		}
	}
	return nil
}
