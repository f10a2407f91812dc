package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
)

func TestOutboxRepository_SaveBatchAndFindUndispatched(t *testing.T) {
	repo := NewOutboxRepository(setupTestDB(t), testLogger())
	ctx := context.Background()
	now := time.Now()

	older := subscription.NewSubscriptionActivatedEvent("sub_a", "org_t1", "starter", now.Add(-time.Minute))
	newer := subscription.NewSubscriptionExpiredEvent("sub_b", "org_t2", "growth", now)

	require.NoError(t, repo.SaveBatch(ctx, []events.DomainEvent{newer, older}))

	records, err := repo.FindUndispatched(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, older.GetEventID(), records[0].EventID, "replay order follows occurrence time")
	assert.Equal(t, newer.GetEventID(), records[1].EventID)
}

func TestOutboxRepository_SaveBatch_EmptyIsNoOp(t *testing.T) {
	repo := NewOutboxRepository(setupTestDB(t), testLogger())
	require.NoError(t, repo.SaveBatch(context.Background(), nil))
}

func TestOutboxRepository_MarkDispatched(t *testing.T) {
	repo := NewOutboxRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	event := subscription.NewSubscriptionActivatedEvent("sub_a", "org_t1", "starter", time.Now())
	require.NoError(t, repo.SaveBatch(ctx, []events.DomainEvent{event}))

	require.NoError(t, repo.MarkDispatched(ctx, event.GetEventID()))

	records, err := repo.FindUndispatched(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	// Marking again is harmless.
	require.NoError(t, repo.MarkDispatched(ctx, event.GetEventID()))
}

func TestOutboxRepository_RecordRehydrates(t *testing.T) {
	repo := NewOutboxRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	event := subscription.NewSubscriptionPeriodAdvancedEvent(
		"sub_a", "org_t1", "starter", time.Now(), time.Now().AddDate(0, 1, 0), time.Now())
	require.NoError(t, repo.SaveBatch(ctx, []events.DomainEvent{event}))

	records, err := repo.FindUndispatched(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	replayed := records[0].Rehydrate()
	assert.Equal(t, event.GetEventID(), replayed.GetEventID())
	assert.Equal(t, event.GetEventType(), replayed.GetEventType())
	assert.Equal(t, "sub_a", replayed.GetAggregateSID())
	assert.Equal(t, "org_t1", replayed.GetTenantSID())
}

func TestOutboxRepository_SaveBatchJoinsCallerTransaction(t *testing.T) {
	database := setupTestDB(t)
	repo := NewOutboxRepository(database, testLogger())
	tm := db.NewTransactionManager(database)
	ctx := context.Background()

	event := subscription.NewSubscriptionActivatedEvent("sub_a", "org_t1", "starter", time.Now())

	err := tm.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.SaveBatch(txCtx, []events.DomainEvent{event}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	records, err := repo.FindUndispatched(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records, "rolled-back transaction leaves no outbox rows")
}
