package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	vo "github.com/subtrack-inc/subtrack/internal/domain/subscription/valueobjects"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
)

func createTrialSubscription(t *testing.T, repo subscription.SubscriptionRepository, tenantSID string) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.NewTrialSubscription(tenantSID, "starter", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), sub))
	sub.PullEvents()
	return sub
}

func TestSubscriptionRepository_CreateAndGet(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	sub := createTrialSubscription(t, repo, "org_tenant01")
	assert.NotZero(t, sub.ID())

	found, err := repo.GetBySID(ctx, sub.SID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, sub.SID(), found.SID())
	assert.Equal(t, vo.StatusTrial, found.Status())
	assert.Equal(t, 1, found.Version())

	byID, err := repo.GetByID(ctx, sub.ID())
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, sub.SID(), byID.SID())
}

func TestSubscriptionRepository_GetBySID_NotFound(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())

	found, err := repo.GetBySID(context.Background(), "sub_missing00000")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSubscriptionRepository_OneNonCanceledPerTenant(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	createTrialSubscription(t, repo, "org_tenant01")

	second, err := subscription.NewTrialSubscription("org_tenant01", "growth", time.Now())
	require.NoError(t, err)

	err = repo.Create(ctx, second)
	require.Error(t, err, "unique slot column must reject a second live subscription")
	assert.True(t, apperrors.IsDuplicateError(err))

	// Another tenant is unaffected.
	createTrialSubscription(t, repo, "org_tenant02")
}

func TestSubscriptionRepository_CanceledFreesTenantSlot(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	first := createTrialSubscription(t, repo, "org_tenant01")
	require.NoError(t, first.Activate(time.Now()))
	first.PullEvents()
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, first.Cancel())
	require.NoError(t, repo.Update(ctx, first))

	// The tenant can start over once the old subscription is canceled.
	createTrialSubscription(t, repo, "org_tenant01")

	// Canceled rows are invisible to the live-subscription lookup.
	live, err := repo.GetNonCanceledByTenant(ctx, "org_tenant01")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, vo.StatusTrial, live.Status())
}

func TestSubscriptionRepository_GetNonCanceledByTenant_Empty(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())

	found, err := repo.GetNonCanceledByTenant(context.Background(), "org_nobody")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSubscriptionRepository_Update(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	sub := createTrialSubscription(t, repo, "org_tenant01")
	require.NoError(t, sub.Activate(time.Now()))
	sub.PullEvents()

	require.NoError(t, repo.Update(ctx, sub))

	found, err := repo.GetBySID(ctx, sub.SID())
	require.NoError(t, err)
	assert.Equal(t, vo.StatusActive, found.Status())
	assert.Equal(t, 2, found.Version())
}

func TestSubscriptionRepository_Update_StaleVersionConflicts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, testLogger())
	ctx := context.Background()

	sub := createTrialSubscription(t, repo, "org_tenant01")

	copyA, err := repo.GetBySID(ctx, sub.SID())
	require.NoError(t, err)
	copyB, err := repo.GetBySID(ctx, sub.SID())
	require.NoError(t, err)

	require.NoError(t, copyA.Activate(time.Now()))
	copyA.PullEvents()
	require.NoError(t, repo.Update(ctx, copyA))

	require.NoError(t, copyB.Activate(time.Now()))
	copyB.PullEvents()
	err = repo.Update(ctx, copyB)
	require.Error(t, err)
	assert.True(t, apperrors.IsConcurrencyError(err), "stale write must surface a concurrency conflict, got: %v", err)
}

func TestSubscriptionRepository_List(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	createTrialSubscription(t, repo, "org_tenant01")
	createTrialSubscription(t, repo, "org_tenant02")
	third := createTrialSubscription(t, repo, "org_tenant03")
	require.NoError(t, third.Activate(time.Now()))
	third.PullEvents()
	require.NoError(t, repo.Update(ctx, third))

	tenant := "org_tenant01"
	results, total, err := repo.List(ctx, subscription.SubscriptionFilter{
		TenantSID: &tenant,
		Page:      1,
		PageSize:  10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, tenant, results[0].TenantSID())

	status := string(vo.StatusTrial)
	results, total, err = repo.List(ctx, subscription.SubscriptionFilter{
		Status:   &status,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, results, 2)
}

func TestSubscriptionRepository_FindDueForExpiry(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	sub := createTrialSubscription(t, repo, "org_tenant01")
	createTrialSubscription(t, repo, "org_tenant02")

	// Nothing is due before any period ends.
	due, err := repo.FindDueForExpiry(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	// Past the first trial's period end, only that subscription is due.
	due, err = repo.FindDueForExpiry(ctx, sub.PeriodEnd().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 2, "both trials share the same period length")

	// Canceled subscriptions are never due.
	require.NoError(t, sub.Activate(time.Now()))
	sub.PullEvents()
	require.NoError(t, repo.Update(ctx, sub))
	require.NoError(t, sub.Cancel())
	require.NoError(t, repo.Update(ctx, sub))

	due, err = repo.FindDueForExpiry(ctx, sub.PeriodEnd().AddDate(0, 2, 0))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "org_tenant02", due[0].TenantSID())
}

func TestSubscriptionRepository_FindPastDueOlderThan(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	sub := createTrialSubscription(t, repo, "org_tenant01")
	require.NoError(t, sub.Activate(time.Now()))
	sub.PullEvents()
	require.NoError(t, repo.Update(ctx, sub))
	require.NoError(t, sub.MarkPastDue())
	require.NoError(t, repo.Update(ctx, sub))

	lapsed, err := repo.FindPastDueOlderThan(ctx, sub.PeriodEnd().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, lapsed, "grace window has not run out yet")

	lapsed, err = repo.FindPastDueOlderThan(ctx, sub.PeriodEnd().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, lapsed, 1)
	assert.Equal(t, sub.SID(), lapsed[0].SID())
}
