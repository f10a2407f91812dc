package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/subtrack-inc/subtrack/internal/domain/subscription/valueobjects"
)

// --- helpers ---

func newTrialSubscription(t *testing.T) *Subscription {
	t.Helper()
	sub, err := NewTrialSubscription("org_tenant01", "starter", time.Now())
	require.NoError(t, err)
	require.NotNil(t, sub)
	return sub
}

func newActiveSubscription(t *testing.T) *Subscription {
	t.Helper()
	sub := newTrialSubscription(t)
	require.NoError(t, sub.Activate(time.Now()))
	sub.PullEvents()
	return sub
}

func newPastDueSubscription(t *testing.T) *Subscription {
	t.Helper()
	sub := newActiveSubscription(t)
	require.NoError(t, sub.MarkPastDue())
	return sub
}

func TestNewTrialSubscription(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub, err := NewTrialSubscription("org_tenant01", "starter", now)
	require.NoError(t, err)

	assert.Equal(t, vo.StatusTrial, sub.Status())
	assert.Equal(t, "org_tenant01", sub.TenantSID())
	assert.Equal(t, "starter", sub.PlanCode())
	assert.Equal(t, now, sub.PeriodStart())
	assert.Equal(t, now.AddDate(0, 0, TrialDays), sub.PeriodEnd())
	assert.Equal(t, 1, sub.Version())
	assert.True(t, len(sub.SID()) > 4)
	assert.Empty(t, sub.PullEvents(), "creation raises no events")
}

func TestNewTrialSubscription_MissingFields(t *testing.T) {
	_, err := NewTrialSubscription("", "starter", time.Now())
	assert.Error(t, err)

	_, err = NewTrialSubscription("org_tenant01", "", time.Now())
	assert.Error(t, err)
}

func TestActivate_FromTrial(t *testing.T) {
	sub := newTrialSubscription(t)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, sub.Activate(now))

	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, now, sub.PeriodStart())
	assert.Equal(t, now.AddDate(0, 1, 0), sub.PeriodEnd())
	assert.Equal(t, 2, sub.Version())

	raised := sub.PullEvents()
	require.Len(t, raised, 1)
	assert.Equal(t, EventTypeActivated, raised[0].GetEventType())
	assert.Equal(t, sub.SID(), raised[0].GetAggregateSID())
	assert.Equal(t, sub.TenantSID(), raised[0].GetTenantSID())
}

func TestActivate_FromPastDue(t *testing.T) {
	sub := newPastDueSubscription(t)

	require.NoError(t, sub.Activate(time.Now()))

	assert.Equal(t, vo.StatusActive, sub.Status())
	raised := sub.PullEvents()
	require.Len(t, raised, 1)
	assert.Equal(t, EventTypeActivated, raised[0].GetEventType())
}

func TestActivate_RejectedFromTerminalStates(t *testing.T) {
	sub := newActiveSubscription(t)
	require.NoError(t, sub.Cancel())

	err := sub.Activate(time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, sub.PullEvents(), "rejected call must not raise")
}

func TestMarkPastDue(t *testing.T) {
	sub := newActiveSubscription(t)

	require.NoError(t, sub.MarkPastDue())
	assert.Equal(t, vo.StatusPastDue, sub.Status())
	assert.Empty(t, sub.PullEvents())

	// Only active subscriptions can go past due.
	err := sub.MarkPastDue()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAdvancePeriod(t *testing.T) {
	sub := newActiveSubscription(t)
	oldEnd := sub.PeriodEnd()

	require.NoError(t, sub.AdvancePeriod(oldEnd.Add(time.Hour)))

	assert.Equal(t, oldEnd, sub.PeriodStart(), "new period starts where the old one ended")
	assert.Equal(t, oldEnd.AddDate(0, 1, 0), sub.PeriodEnd())

	raised := sub.PullEvents()
	require.Len(t, raised, 1)
	assert.Equal(t, EventTypePeriodAdvanced, raised[0].GetEventType())
}

func TestAdvancePeriod_BeforePeriodEnd(t *testing.T) {
	sub := newActiveSubscription(t)
	versionBefore := sub.Version()

	err := sub.AdvancePeriod(sub.PeriodEnd().Add(-time.Hour))
	assert.ErrorIs(t, err, ErrPeriodNotEnded)
	assert.Equal(t, versionBefore, sub.Version(), "rejected call must not mutate")
	assert.Empty(t, sub.PullEvents())
}

func TestAdvancePeriod_RejectedWhenNotActive(t *testing.T) {
	sub := newTrialSubscription(t)

	err := sub.AdvancePeriod(sub.PeriodEnd().Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestExpire(t *testing.T) {
	sub := newTrialSubscription(t)

	require.NoError(t, sub.Expire(sub.PeriodEnd().Add(time.Minute)))

	assert.Equal(t, vo.StatusExpired, sub.Status())
	raised := sub.PullEvents()
	require.Len(t, raised, 1)
	assert.Equal(t, EventTypeExpired, raised[0].GetEventType())
}

func TestExpire_BeforePeriodEnd(t *testing.T) {
	sub := newTrialSubscription(t)

	err := sub.Expire(sub.PeriodEnd().Add(-time.Minute))
	assert.ErrorIs(t, err, ErrPeriodNotEnded)
	assert.Equal(t, vo.StatusTrial, sub.Status())
	assert.Empty(t, sub.PullEvents(), "failed guard must leave no queued event")
}

func TestExpire_RejectedFromPastDue(t *testing.T) {
	sub := newPastDueSubscription(t)

	err := sub.Expire(sub.PeriodEnd().Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	sub := newActiveSubscription(t)

	require.NoError(t, sub.Cancel())
	assert.Equal(t, vo.StatusCanceled, sub.Status())
	require.NotNil(t, sub.CanceledAt())
	assert.Empty(t, sub.PullEvents(), "voluntary cancel raises no event")
}

func TestCancel_Idempotent(t *testing.T) {
	sub := newActiveSubscription(t)
	require.NoError(t, sub.Cancel())

	firstCanceledAt := *sub.CanceledAt()
	versionAfterFirst := sub.Version()

	require.NoError(t, sub.Cancel())
	assert.Equal(t, firstCanceledAt, *sub.CanceledAt(), "repeat cancel keeps the original timestamp")
	assert.Equal(t, versionAfterFirst, sub.Version(), "repeat cancel does not bump the version")
}

func TestCancel_RejectedFromTrial(t *testing.T) {
	sub := newTrialSubscription(t)

	err := sub.Cancel()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelForNonPayment(t *testing.T) {
	sub := newPastDueSubscription(t)

	require.NoError(t, sub.CancelForNonPayment())

	assert.Equal(t, vo.StatusCanceled, sub.Status())
	require.NotNil(t, sub.CanceledAt())

	raised := sub.PullEvents()
	require.Len(t, raised, 1)
	assert.Equal(t, EventTypeCanceledForNonPayment, raised[0].GetEventType())
}

func TestCancelForNonPayment_RejectedWhenNotPastDue(t *testing.T) {
	sub := newActiveSubscription(t)

	err := sub.CancelForNonPayment()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpgradePlan(t *testing.T) {
	sub := newActiveSubscription(t)
	periodEnd := sub.PeriodEnd()

	require.NoError(t, sub.UpgradePlan("growth"))

	assert.Equal(t, "growth", sub.PlanCode())
	assert.Equal(t, periodEnd, sub.PeriodEnd(), "plan change leaves the billing period alone")
	assert.Empty(t, sub.PullEvents())
}

func TestUpgradePlan_SamePlanIsNoOp(t *testing.T) {
	sub := newActiveSubscription(t)
	versionBefore := sub.Version()

	require.NoError(t, sub.UpgradePlan(sub.PlanCode()))
	assert.Equal(t, versionBefore, sub.Version())
}

func TestUpgradePlan_RejectedOnTerminal(t *testing.T) {
	sub := newActiveSubscription(t)
	require.NoError(t, sub.Cancel())

	err := sub.UpgradePlan("growth")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVersionBumpsOnEveryMutation(t *testing.T) {
	sub := newTrialSubscription(t)
	assert.Equal(t, 1, sub.Version())

	require.NoError(t, sub.Activate(time.Now()))
	assert.Equal(t, 2, sub.Version())

	require.NoError(t, sub.MarkPastDue())
	assert.Equal(t, 3, sub.Version())

	require.NoError(t, sub.CancelForNonPayment())
	assert.Equal(t, 4, sub.Version())
}

func TestReconstructSubscription(t *testing.T) {
	now := time.Now().UTC()
	canceledAt := now.Add(-time.Hour)

	sub, err := ReconstructSubscription(SubscriptionReconstructParams{
		ID:          42,
		SID:         "sub_abc123def456",
		TenantSID:   "org_tenant01",
		PlanCode:    "growth",
		Status:      vo.StatusCanceled,
		PeriodStart: now.AddDate(0, -1, 0),
		PeriodEnd:   now,
		CanceledAt:  &canceledAt,
		Version:     7,
		CreatedAt:   now.AddDate(0, -2, 0),
		UpdatedAt:   canceledAt,
	})
	require.NoError(t, err)

	assert.Equal(t, uint(42), sub.ID())
	assert.Equal(t, vo.StatusCanceled, sub.Status())
	assert.Equal(t, 7, sub.Version())
	require.NotNil(t, sub.CanceledAt())
}

func TestReconstructSubscription_InvalidStatus(t *testing.T) {
	_, err := ReconstructSubscription(SubscriptionReconstructParams{
		ID:        1,
		SID:       "sub_abc123def456",
		TenantSID: "org_tenant01",
		PlanCode:  "starter",
		Status:    vo.SubscriptionStatus("frozen"),
	})
	assert.Error(t, err)
}

func TestSetID(t *testing.T) {
	sub := newTrialSubscription(t)

	require.NoError(t, sub.SetID(10))
	assert.Equal(t, uint(10), sub.ID())

	assert.Error(t, sub.SetID(11), "ID can only be set once")
	assert.Error(t, newTrialSubscription(t).SetID(0))
}
