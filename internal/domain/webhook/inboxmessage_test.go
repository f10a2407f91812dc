package webhook

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingMessage(t *testing.T) *InboxMessage {
	t.Helper()
	msg, err := NewInboxMessage("evt_provider001", "payment.succeeded", []byte(`{"subscription":"sub_x"}`), time.Now())
	require.NoError(t, err)
	return msg
}

func newDeadLetteredMessage(t *testing.T) *InboxMessage {
	t.Helper()
	msg := newPendingMessage(t)
	for i := 0; i < DefaultMaxAttempts; i++ {
		require.NoError(t, msg.MarkFailed(errors.New("boom"), time.Now(), DefaultMaxAttempts))
	}
	require.True(t, msg.IsDeadLettered())
	return msg
}

func TestNewInboxMessage(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	msg, err := NewInboxMessage("evt_provider001", "payment.succeeded", []byte(`{}`), now)
	require.NoError(t, err)

	assert.Equal(t, "evt_provider001", msg.ExternalEventID())
	assert.Equal(t, "payment.succeeded", msg.EventType())
	assert.Equal(t, now, msg.ReceivedAt())
	assert.Zero(t, msg.AttemptCount())
	require.NotNil(t, msg.NextAttemptAt())
	assert.Equal(t, now, *msg.NextAttemptAt(), "new messages are eligible immediately")
	assert.False(t, msg.IsProcessed())
	assert.False(t, msg.IsDeadLettered())
}

func TestNewInboxMessage_MissingFields(t *testing.T) {
	_, err := NewInboxMessage("", "payment.succeeded", nil, time.Now())
	assert.Error(t, err)

	_, err = NewInboxMessage("evt_provider001", "", nil, time.Now())
	assert.Error(t, err)
}

func TestMarkProcessed(t *testing.T) {
	msg := newPendingMessage(t)
	require.NoError(t, msg.MarkFailed(errors.New("transient"), time.Now(), DefaultMaxAttempts))

	now := time.Now()
	require.NoError(t, msg.MarkProcessed(now))

	assert.True(t, msg.IsProcessed())
	assert.Nil(t, msg.LastError(), "success clears the stored error")
	assert.Nil(t, msg.NextAttemptAt())

	assert.Error(t, msg.MarkProcessed(now), "double completion is rejected")
	assert.Error(t, msg.MarkFailed(errors.New("late"), now, DefaultMaxAttempts))
}

func TestMarkFailed_SchedulesBackoff(t *testing.T) {
	msg := newPendingMessage(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, msg.MarkFailed(errors.New("provider 500"), now, DefaultMaxAttempts))

	assert.Equal(t, 1, msg.AttemptCount())
	require.NotNil(t, msg.LastError())
	assert.Equal(t, "provider 500", *msg.LastError())
	require.NotNil(t, msg.NextAttemptAt())
	assert.Equal(t, now.Add(2*time.Second), *msg.NextAttemptAt())
	assert.False(t, msg.IsDeadLettered())
}

func TestMarkFailed_TruncatesLongErrors(t *testing.T) {
	msg := newPendingMessage(t)
	long := strings.Repeat("x", MaxLastErrorLength+200)

	require.NoError(t, msg.MarkFailed(errors.New(long), time.Now(), DefaultMaxAttempts))

	require.NotNil(t, msg.LastError())
	assert.Len(t, *msg.LastError(), MaxLastErrorLength)
}

func TestMarkFailed_NilError(t *testing.T) {
	msg := newPendingMessage(t)

	require.NoError(t, msg.MarkFailed(nil, time.Now(), DefaultMaxAttempts))

	require.NotNil(t, msg.LastError())
	assert.Equal(t, "unknown error", *msg.LastError())
}

func TestMarkFailed_DeadLettersAtMaxAttempts(t *testing.T) {
	msg := newPendingMessage(t)

	for i := 0; i < DefaultMaxAttempts-1; i++ {
		require.NoError(t, msg.MarkFailed(errors.New("boom"), time.Now(), DefaultMaxAttempts))
		assert.False(t, msg.IsDeadLettered(), "attempt %d should not dead-letter", i+1)
	}

	require.NoError(t, msg.MarkFailed(errors.New("boom"), time.Now(), DefaultMaxAttempts))
	assert.True(t, msg.IsDeadLettered())
	assert.Equal(t, DefaultMaxAttempts, msg.AttemptCount())
}

func TestRevive(t *testing.T) {
	msg := newDeadLetteredMessage(t)
	now := time.Now()

	require.NoError(t, msg.Revive(now))

	assert.False(t, msg.IsDeadLettered())
	assert.Zero(t, msg.AttemptCount())
	assert.Nil(t, msg.LastError())
	require.NotNil(t, msg.NextAttemptAt())
	assert.False(t, msg.NextAttemptAt().After(now.UTC()), "revived messages are eligible immediately")
}

func TestRevive_RejectedWhenNotDeadLettered(t *testing.T) {
	msg := newPendingMessage(t)
	assert.Error(t, msg.Revive(time.Now()))
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), BackoffDelay(0))
	assert.Equal(t, 2*time.Second, BackoffDelay(1))
	assert.Equal(t, 4*time.Second, BackoffDelay(2))
	assert.Equal(t, 256*time.Second, BackoffDelay(8))
	assert.Equal(t, 1024*time.Second, BackoffDelay(10))
	assert.Equal(t, MaxBackoff, BackoffDelay(11))
	assert.Equal(t, MaxBackoff, BackoffDelay(21))
	assert.Equal(t, MaxBackoff, BackoffDelay(1000), "huge counts must not overflow")
}

func TestBackoffDelay_NonDecreasing(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 1; attempt <= 30; attempt++ {
		delay := BackoffDelay(attempt)
		assert.GreaterOrEqual(t, delay, prev, "attempt %d", attempt)
		assert.LessOrEqual(t, delay, MaxBackoff)
		prev = delay
	}
}

func TestReconstructInboxMessage(t *testing.T) {
	now := time.Now().UTC()
	lastErr := "subscription not found"

	msg, err := ReconstructInboxMessage(InboxMessageReconstructParams{
		ID:              3,
		SID:             "iwh_abc123def456",
		ExternalEventID: "evt_provider001",
		EventType:       "payment.failed",
		Payload:         []byte(`{}`),
		ReceivedAt:      now.Add(-time.Hour),
		AttemptCount:    4,
		NextAttemptAt:   &now,
		LastError:       &lastErr,
	})
	require.NoError(t, err)

	assert.Equal(t, uint(3), msg.ID())
	assert.Equal(t, 4, msg.AttemptCount())
	require.NotNil(t, msg.LastError())
	assert.Equal(t, lastErr, *msg.LastError())
}

func TestReconstructInboxMessage_Invalid(t *testing.T) {
	_, err := ReconstructInboxMessage(InboxMessageReconstructParams{ID: 0, ExternalEventID: "evt_x"})
	assert.Error(t, err)

	_, err = ReconstructInboxMessage(InboxMessageReconstructParams{ID: 1, ExternalEventID: ""})
	assert.Error(t, err)
}
