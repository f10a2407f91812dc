package events

import "context"

// ProcessedEventStore is the per-(event, handler) exactly-once marker.
// A record's existence means that handler already produced its side effect
// for that event. Existence-check and mark are two separate operations, so
// handlers whose effects are not naturally idempotent must additionally
// guard their side-effect storage with a uniqueness constraint.
type ProcessedEventStore interface {
	// Exists reports whether the handler already processed the event.
	Exists(ctx context.Context, eventID, handlerName string) (bool, error)

	// MarkProcessed records that the handler completed its side effect.
	// Inserting an already-present marker is a no-op.
	MarkProcessed(ctx context.Context, eventID, handlerName string) error
}
