package events

import (
	"context"
	"time"
)

// OutboxRecord is a committed-but-possibly-undispatched domain event. The
// unit of work writes records in the same transaction as the aggregate
// mutation; the outbox processor replays any record whose dispatch never
// completed (crash between commit and dispatch).
type OutboxRecord struct {
	EventID      string
	EventType    string
	AggregateSID string
	TenantSID    string
	Payload      []byte
	OccurredAt   time.Time
	DispatchedAt *time.Time
}

// Rehydrate turns a stored record back into a dispatchable domain event.
// Handlers depend only on the DomainEvent interface, so the envelope fields
// are sufficient for replay.
func (r *OutboxRecord) Rehydrate() DomainEvent {
	return BaseEvent{
		EventID:      r.EventID,
		EventType:    r.EventType,
		AggregateSID: r.AggregateSID,
		TenantSID:    r.TenantSID,
		OccurredAt:   r.OccurredAt,
	}
}

// OutboxRepository persists the outbox within the commit transaction and
// feeds the replay poller.
type OutboxRepository interface {
	// SaveBatch inserts one record per event. Must run inside the caller's
	// transaction (tx-in-context).
	SaveBatch(ctx context.Context, batch []DomainEvent) error

	// FindUndispatched returns records never marked dispatched, oldest first.
	FindUndispatched(ctx context.Context, limit int) ([]*OutboxRecord, error)

	// MarkDispatched stamps a record after its handlers completed.
	MarkDispatched(ctx context.Context, eventID string) error
}
