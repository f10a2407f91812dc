package webhook

import (
	"context"
	"time"
)

// DeadLetterFilter narrows operator dead-letter listings. Search matches
// external event IDs and last errors; an empty SortBy lists newest first.
type DeadLetterFilter struct {
	EventType string
	Search    string
	SortBy    string
	SortDesc  bool
	Limit     int
	Offset    int
}

// InboxRepository is the durable staging queue for inbound provider events.
type InboxRepository interface {
	// Enqueue stores a new message. Re-delivery of an already known external
	// event ID is a no-op; the bool reports whether a row was inserted.
	Enqueue(ctx context.Context, msg *InboxMessage) (bool, error)

	// ClaimBatch returns up to limit pending messages whose next attempt is
	// due at now, oldest received first. Dead-lettered and processed
	// messages are never returned.
	ClaimBatch(ctx context.Context, limit int, now time.Time) ([]*InboxMessage, error)

	// Update persists state transitions (processed, failed, revived).
	Update(ctx context.Context, msg *InboxMessage) error

	GetBySID(ctx context.Context, sid string) (*InboxMessage, error)
	GetByExternalEventID(ctx context.Context, externalEventID string) (*InboxMessage, error)

	// ListDeadLettered pages through messages awaiting operator action.
	ListDeadLettered(ctx context.Context, filter DeadLetterFilter) ([]*InboxMessage, int64, error)

	// CountPending returns the number of unprocessed, non-dead-lettered rows.
	CountPending(ctx context.Context) (int64, error)
}
