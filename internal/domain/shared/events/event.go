package events

import (
	"time"

	"github.com/subtrack-inc/subtrack/internal/shared/id"
)

// DomainEvent represents a domain event raised by an aggregate.
// Event IDs are assigned once at raise time and stay stable across
// re-dispatch, so per-handler processed markers can deduplicate retries.
type DomainEvent interface {
	// GetEventID returns the globally unique event ID (evt_xxx)
	GetEventID() string

	// GetEventType returns the type/name of the event
	GetEventType() string

	// GetAggregateSID returns the SID of the aggregate that raised the event
	GetAggregateSID() string

	// GetTenantSID returns the owning tenant's SID
	GetTenantSID() string

	// GetOccurredAt returns when the event occurred
	GetOccurredAt() time.Time
}

// BaseEvent provides common fields for all domain events
type BaseEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	AggregateSID string    `json:"aggregate_sid"`
	TenantSID    string    `json:"tenant_sid"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewBaseEvent creates the common event envelope with a fresh event ID.
func NewBaseEvent(eventType, aggregateSID, tenantSID string, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		EventID:      id.MustGenerateWithPrefix(id.PrefixEvent, id.DefaultLength),
		EventType:    eventType,
		AggregateSID: aggregateSID,
		TenantSID:    tenantSID,
		OccurredAt:   occurredAt.UTC(),
	}
}

// GetEventID returns the event ID
func (e BaseEvent) GetEventID() string {
	return e.EventID
}

// GetEventType returns the event type
func (e BaseEvent) GetEventType() string {
	return e.EventType
}

// GetAggregateSID returns the aggregate SID
func (e BaseEvent) GetAggregateSID() string {
	return e.AggregateSID
}

// GetTenantSID returns the tenant SID
func (e BaseEvent) GetTenantSID() string {
	return e.TenantSID
}

// GetOccurredAt returns when the event occurred
func (e BaseEvent) GetOccurredAt() time.Time {
	return e.OccurredAt
}

// Recorder collects events raised by an aggregate until the unit of work
// drains them after a successful commit. Aggregates embed it by value.
type Recorder struct {
	pending []DomainEvent
}

// Record appends an event to the pending batch in raise order.
func (r *Recorder) Record(event DomainEvent) {
	r.pending = append(r.pending, event)
}

// PendingEvents returns the captured events without clearing them.
func (r *Recorder) PendingEvents() []DomainEvent {
	return r.pending
}

// PullEvents returns the captured events and clears the batch.
func (r *Recorder) PullEvents() []DomainEvent {
	events := r.pending
	r.pending = nil
	return events
}

// EventSource is implemented by aggregates whose events the unit of work drains.
type EventSource interface {
	PullEvents() []DomainEvent
}
