package webhook

import (
	"fmt"
	"time"

	"github.com/subtrack-inc/subtrack/internal/shared/id"
)

const (
	// MaxLastErrorLength bounds the stored error text.
	MaxLastErrorLength = 500

	// MaxBackoff caps the retry delay.
	MaxBackoff = 30 * time.Minute

	// DefaultMaxAttempts is the number of failed attempts before a message
	// is dead-lettered and waits for an operator.
	DefaultMaxAttempts = 8
)

// InboxMessage is one durably staged provider event. Messages are created
// once per external event ID (duplicate deliveries are no-ops) and move
// pending → processed, or pending → pending-with-backoff on failure, until
// dead-lettered.
type InboxMessage struct {
	id              uint
	sid             string
	externalEventID string
	eventType       string
	payload         []byte
	receivedAt      time.Time
	processedAt     *time.Time
	attemptCount    int
	nextAttemptAt   *time.Time
	lastError       *string
	deadLetteredAt  *time.Time
}

// NewInboxMessage stages a freshly received provider event, eligible for
// processing immediately.
func NewInboxMessage(externalEventID, eventType string, payload []byte, now time.Time) (*InboxMessage, error) {
	if externalEventID == "" {
		return nil, fmt.Errorf("external event ID is required")
	}
	if eventType == "" {
		return nil, fmt.Errorf("event type is required")
	}

	now = now.UTC()
	return &InboxMessage{
		sid:             id.MustGenerateWithPrefix(id.PrefixInboxMessage, id.DefaultLength),
		externalEventID: externalEventID,
		eventType:       eventType,
		payload:         payload,
		receivedAt:      now,
		nextAttemptAt:   &now,
	}, nil
}

// InboxMessageReconstructParams carries persisted state back into the entity.
type InboxMessageReconstructParams struct {
	ID              uint
	SID             string
	ExternalEventID string
	EventType       string
	Payload         []byte
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
	AttemptCount    int
	NextAttemptAt   *time.Time
	LastError       *string
	DeadLetteredAt  *time.Time
}

// ReconstructInboxMessage rebuilds a message from persistence.
func ReconstructInboxMessage(p InboxMessageReconstructParams) (*InboxMessage, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("inbox message ID cannot be zero")
	}
	if p.ExternalEventID == "" {
		return nil, fmt.Errorf("external event ID is required")
	}

	return &InboxMessage{
		id:              p.ID,
		sid:             p.SID,
		externalEventID: p.ExternalEventID,
		eventType:       p.EventType,
		payload:         p.Payload,
		receivedAt:      p.ReceivedAt,
		processedAt:     p.ProcessedAt,
		attemptCount:    p.AttemptCount,
		nextAttemptAt:   p.NextAttemptAt,
		lastError:       p.LastError,
		deadLetteredAt:  p.DeadLetteredAt,
	}, nil
}

func (m *InboxMessage) ID() uint                   { return m.id }
func (m *InboxMessage) SID() string                { return m.sid }
func (m *InboxMessage) ExternalEventID() string    { return m.externalEventID }
func (m *InboxMessage) EventType() string          { return m.eventType }
func (m *InboxMessage) Payload() []byte            { return m.payload }
func (m *InboxMessage) ReceivedAt() time.Time      { return m.receivedAt }
func (m *InboxMessage) ProcessedAt() *time.Time    { return m.processedAt }
func (m *InboxMessage) AttemptCount() int          { return m.attemptCount }
func (m *InboxMessage) NextAttemptAt() *time.Time  { return m.nextAttemptAt }
func (m *InboxMessage) LastError() *string         { return m.lastError }
func (m *InboxMessage) DeadLetteredAt() *time.Time { return m.deadLetteredAt }

// SetID sets the message ID (only for persistence layer use)
func (m *InboxMessage) SetID(id uint) error {
	if m.id != 0 {
		return fmt.Errorf("inbox message ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("inbox message ID cannot be zero")
	}
	m.id = id
	return nil
}

// IsProcessed reports terminal success.
func (m *InboxMessage) IsProcessed() bool {
	return m.processedAt != nil
}

// IsDeadLettered reports that the message awaits operator action.
func (m *InboxMessage) IsDeadLettered() bool {
	return m.deadLetteredAt != nil
}

// MarkProcessed records terminal success and clears the last error.
func (m *InboxMessage) MarkProcessed(now time.Time) error {
	if m.processedAt != nil {
		return fmt.Errorf("inbox message %s already processed", m.sid)
	}
	now = now.UTC()
	m.processedAt = &now
	m.lastError = nil
	m.nextAttemptAt = nil
	return nil
}

// MarkFailed records a failed attempt: increments the attempt count, stores
// the truncated error, and schedules the next attempt with capped
// exponential backoff (min(30min, 2^attempts seconds)). Once maxAttempts is
// reached the message is dead-lettered instead of rescheduled.
func (m *InboxMessage) MarkFailed(procErr error, now time.Time, maxAttempts int) error {
	if m.processedAt != nil {
		return fmt.Errorf("inbox message %s already processed", m.sid)
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	now = now.UTC()
	m.attemptCount++

	errText := "unknown error"
	if procErr != nil {
		errText = procErr.Error()
	}
	if len(errText) > MaxLastErrorLength {
		errText = errText[:MaxLastErrorLength]
	}
	m.lastError = &errText

	next := now.Add(BackoffDelay(m.attemptCount))
	m.nextAttemptAt = &next

	if m.attemptCount >= maxAttempts && m.deadLetteredAt == nil {
		m.deadLetteredAt = &now
	}

	return nil
}

// Revive returns a dead-lettered message to pending with reset backoff so
// the worker picks it up on the next poll.
func (m *InboxMessage) Revive(now time.Time) error {
	if m.processedAt != nil {
		return fmt.Errorf("inbox message %s already processed", m.sid)
	}
	if m.deadLetteredAt == nil {
		return fmt.Errorf("inbox message %s is not dead-lettered", m.sid)
	}

	now = now.UTC()
	m.deadLetteredAt = nil
	m.attemptCount = 0
	m.lastError = nil
	m.nextAttemptAt = &now
	return nil
}

// BackoffDelay computes the capped exponential retry delay for the given
// attempt count: min(30min, 2^attempts seconds).
func BackoffDelay(attemptCount int) time.Duration {
	if attemptCount <= 0 {
		return 0
	}
	// 2^21s already exceeds the 30min cap; avoid overflow on huge counts.
	if attemptCount > 21 {
		return MaxBackoff
	}
	delay := time.Duration(1<<uint(attemptCount)) * time.Second
	if delay > MaxBackoff {
		return MaxBackoff
	}
	return delay
}
