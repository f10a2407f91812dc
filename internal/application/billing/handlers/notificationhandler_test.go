package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/repository"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

type stubNotifier struct {
	expired  []string
	canceled []string
	fail     error
}

func (n *stubNotifier) NotifySubscriptionExpired(_ context.Context, _, subscriptionSID string) error {
	if n.fail != nil {
		return n.fail
	}
	n.expired = append(n.expired, subscriptionSID)
	return nil
}

func (n *stubNotifier) NotifySubscriptionCanceledForNonPayment(_ context.Context, _, subscriptionSID string) error {
	if n.fail != nil {
		return n.fail
	}
	n.canceled = append(n.canceled, subscriptionSID)
	return nil
}

func setupNotificationHandler(t *testing.T) (*NotificationHandler, *stubNotifier, events.ProcessedEventStore) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(&models.ProcessedEventModel{}))

	log := logger.NewLogger()
	processed := repository.NewProcessedEventRepository(database, log)
	notifier := &stubNotifier{}

	return NewNotificationHandler(processed, notifier, log), notifier, processed
}

func TestNotificationHandler_NotifiesOnExpiry(t *testing.T) {
	handler, notifier, processed := setupNotificationHandler(t)
	ctx := context.Background()

	event := subscription.NewSubscriptionExpiredEvent("sub_abc123", "org_tenant01", "starter", time.Now())
	require.NoError(t, handler.Handle(ctx, event))

	assert.Equal(t, []string{"sub_abc123"}, notifier.expired)

	done, err := processed.Exists(ctx, event.GetEventID(), NotificationHandlerName)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestNotificationHandler_NotifiesOnNonPaymentCancellation(t *testing.T) {
	handler, notifier, _ := setupNotificationHandler(t)

	event := subscription.NewSubscriptionCanceledForNonPaymentEvent("sub_abc123", "org_tenant01", "starter", time.Now())
	require.NoError(t, handler.Handle(context.Background(), event))

	assert.Equal(t, []string{"sub_abc123"}, notifier.canceled)
	assert.Empty(t, notifier.expired)
}

func TestNotificationHandler_ReplaySendsNothing(t *testing.T) {
	handler, notifier, _ := setupNotificationHandler(t)
	ctx := context.Background()

	event := subscription.NewSubscriptionExpiredEvent("sub_abc123", "org_tenant01", "starter", time.Now())
	require.NoError(t, handler.Handle(ctx, event))
	require.NoError(t, handler.Handle(ctx, event))

	assert.Len(t, notifier.expired, 1, "the guard keeps the mailer at one notice per event")
}

func TestNotificationHandler_SendFailureStaysRetryable(t *testing.T) {
	handler, notifier, processed := setupNotificationHandler(t)
	ctx := context.Background()
	notifier.fail = assert.AnError

	event := subscription.NewSubscriptionExpiredEvent("sub_abc123", "org_tenant01", "starter", time.Now())
	err := handler.Handle(ctx, event)
	require.Error(t, err)

	done, markerErr := processed.Exists(ctx, event.GetEventID(), NotificationHandlerName)
	require.NoError(t, markerErr)
	assert.False(t, done)

	// The mail provider recovers; the retry goes through.
	notifier.fail = nil
	require.NoError(t, handler.Handle(ctx, event))
	assert.Len(t, notifier.expired, 1)
}
