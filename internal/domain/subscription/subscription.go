package subscription

import (
	"fmt"
	"time"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription/valueobjects"
	"github.com/subtrack-inc/subtrack/internal/shared/id"
)

// TrialDays is the length of the initial trial period.
const TrialDays = 14

// Subscription represents the subscription aggregate root. All lifecycle
// mutations go through its guarded methods; illegal calls are rejected so
// callers can tell "nothing to do" from an invariant violation. Cancel is
// the deliberate exception: it is idempotent because clients retry it after
// timeouts more than any other transition.
type Subscription struct {
	events.Recorder

	id          uint
	sid         string
	tenantSID   string
	planCode    string
	status      valueobjects.SubscriptionStatus
	periodStart time.Time
	periodEnd   time.Time
	canceledAt  *time.Time
	version     int
	createdAt   time.Time
	updatedAt   time.Time
}

// NewTrialSubscription creates a subscription in trial status with a
// 14-day period starting at now.
func NewTrialSubscription(tenantSID, planCode string, now time.Time) (*Subscription, error) {
	if tenantSID == "" {
		return nil, fmt.Errorf("tenant SID is required")
	}
	if planCode == "" {
		return nil, fmt.Errorf("plan code is required")
	}

	now = now.UTC()
	s := &Subscription{
		sid:         id.MustGenerateWithPrefix(id.PrefixSubscription, id.DefaultLength),
		tenantSID:   tenantSID,
		planCode:    planCode,
		status:      valueobjects.StatusTrial,
		periodStart: now,
		periodEnd:   now.AddDate(0, 0, TrialDays),
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}

	return s, nil
}

// SubscriptionReconstructParams carries persisted state back into the aggregate.
type SubscriptionReconstructParams struct {
	ID          uint
	SID         string
	TenantSID   string
	PlanCode    string
	Status      valueobjects.SubscriptionStatus
	PeriodStart time.Time
	PeriodEnd   time.Time
	CanceledAt  *time.Time
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReconstructSubscription rebuilds a subscription from persistence.
func ReconstructSubscription(p SubscriptionReconstructParams) (*Subscription, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if p.SID == "" {
		return nil, fmt.Errorf("subscription SID is required")
	}
	if p.TenantSID == "" {
		return nil, fmt.Errorf("tenant SID is required")
	}
	if !valueobjects.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}

	return &Subscription{
		id:          p.ID,
		sid:         p.SID,
		tenantSID:   p.TenantSID,
		planCode:    p.PlanCode,
		status:      p.Status,
		periodStart: p.PeriodStart,
		periodEnd:   p.PeriodEnd,
		canceledAt:  p.CanceledAt,
		version:     p.Version,
		createdAt:   p.CreatedAt,
		updatedAt:   p.UpdatedAt,
	}, nil
}

// ID returns the subscription ID
func (s *Subscription) ID() uint {
	return s.id
}

// SID returns the Stripe-style subscription identifier (sub_xxx)
func (s *Subscription) SID() string {
	return s.sid
}

// TenantSID returns the owning tenant's SID
func (s *Subscription) TenantSID() string {
	return s.tenantSID
}

// PlanCode returns the current plan code
func (s *Subscription) PlanCode() string {
	return s.planCode
}

// Status returns the subscription status
func (s *Subscription) Status() valueobjects.SubscriptionStatus {
	return s.status
}

// PeriodStart returns the current billing period start
func (s *Subscription) PeriodStart() time.Time {
	return s.periodStart
}

// PeriodEnd returns the current billing period end
func (s *Subscription) PeriodEnd() time.Time {
	return s.periodEnd
}

// CanceledAt returns when the subscription was canceled
func (s *Subscription) CanceledAt() *time.Time {
	return s.canceledAt
}

// Version returns the aggregate version for optimistic locking
func (s *Subscription) Version() int {
	return s.version
}

// CreatedAt returns when the subscription was created
func (s *Subscription) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt returns when the subscription was last updated
func (s *Subscription) UpdatedAt() time.Time {
	return s.updatedAt
}

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}

func (s *Subscription) touch(now time.Time) {
	s.updatedAt = now.UTC()
	s.version++
}

// Activate moves a trial or past-due subscription to active and resets the
// billing period to one month starting at now.
func (s *Subscription) Activate(now time.Time) error {
	if !s.status.CanTransitionTo(valueobjects.StatusActive) {
		return fmt.Errorf("%w: cannot activate from %s", ErrInvalidTransition, s.status)
	}

	now = now.UTC()
	s.status = valueobjects.StatusActive
	s.periodStart = now
	s.periodEnd = now.AddDate(0, 1, 0)
	s.touch(now)

	s.Record(NewSubscriptionActivatedEvent(s.sid, s.tenantSID, s.planCode, now))

	return nil
}

// MarkPastDue flags an active subscription whose renewal payment failed.
func (s *Subscription) MarkPastDue() error {
	if !s.status.CanTransitionTo(valueobjects.StatusPastDue) {
		return fmt.Errorf("%w: cannot mark past due from %s", ErrInvalidTransition, s.status)
	}

	s.status = valueobjects.StatusPastDue
	s.touch(time.Now())

	return nil
}

// AdvancePeriod shifts the billing period forward by one month. Allowed only
// for active subscriptions whose current period has ended.
func (s *Subscription) AdvancePeriod(now time.Time) error {
	if s.status != valueobjects.StatusActive {
		return fmt.Errorf("%w: cannot advance period from %s", ErrInvalidTransition, s.status)
	}
	now = now.UTC()
	if now.Before(s.periodEnd) {
		return fmt.Errorf("%w: period ends at %s", ErrPeriodNotEnded, s.periodEnd.Format(time.RFC3339))
	}

	oldEnd := s.periodEnd
	s.periodStart = oldEnd
	s.periodEnd = oldEnd.AddDate(0, 1, 0)
	s.touch(now)

	s.Record(NewSubscriptionPeriodAdvancedEvent(s.sid, s.tenantSID, s.planCode, s.periodStart, s.periodEnd, now))

	return nil
}

// Expire terminates a trial or active subscription whose period has ended.
// Raises SubscriptionExpired; never raises when the guard rejects the call.
func (s *Subscription) Expire(now time.Time) error {
	if !s.status.CanTransitionTo(valueobjects.StatusExpired) {
		return fmt.Errorf("%w: cannot expire from %s", ErrInvalidTransition, s.status)
	}
	now = now.UTC()
	if now.Before(s.periodEnd) {
		return fmt.Errorf("%w: period ends at %s", ErrPeriodNotEnded, s.periodEnd.Format(time.RFC3339))
	}

	s.status = valueobjects.StatusExpired
	s.touch(now)

	s.Record(NewSubscriptionExpiredEvent(s.sid, s.tenantSID, s.planCode, now))

	return nil
}

// Cancel cancels an active or past-due subscription. Calling it on an
// already-canceled subscription is a no-op.
func (s *Subscription) Cancel() error {
	if s.status == valueobjects.StatusCanceled {
		return nil
	}

	if !s.status.CanTransitionTo(valueobjects.StatusCanceled) {
		return fmt.Errorf("%w: cannot cancel from %s", ErrInvalidTransition, s.status)
	}

	now := time.Now().UTC()
	s.status = valueobjects.StatusCanceled
	s.canceledAt = &now
	s.touch(now)

	return nil
}

// CancelForNonPayment cancels a past-due subscription after its grace window
// and raises the nonpayment cancellation event.
func (s *Subscription) CancelForNonPayment() error {
	if s.status != valueobjects.StatusPastDue {
		return fmt.Errorf("%w: cannot cancel for nonpayment from %s", ErrInvalidTransition, s.status)
	}

	now := time.Now().UTC()
	s.status = valueobjects.StatusCanceled
	s.canceledAt = &now
	s.touch(now)

	s.Record(NewSubscriptionCanceledForNonPaymentEvent(s.sid, s.tenantSID, s.planCode, now))

	return nil
}

// UpgradePlan changes the plan code. The billing period is untouched and no
// event is raised; proration is billed at the next renewal.
func (s *Subscription) UpgradePlan(newPlanCode string) error {
	if newPlanCode == "" {
		return fmt.Errorf("new plan code is required")
	}
	if s.status.IsTerminal() {
		return fmt.Errorf("%w: cannot change plan from %s", ErrInvalidTransition, s.status)
	}
	if newPlanCode == s.planCode {
		return nil
	}

	s.planCode = newPlanCode
	s.touch(time.Now())

	return nil
}

// Validate performs domain-level validation
func (s *Subscription) Validate() error {
	if s.tenantSID == "" {
		return fmt.Errorf("tenant SID is required")
	}
	if s.planCode == "" {
		return fmt.Errorf("plan code is required")
	}
	if !valueobjects.ValidStatuses[s.status] {
		return fmt.Errorf("invalid status: %s", s.status)
	}
	if s.periodEnd.Before(s.periodStart) {
		return fmt.Errorf("period end must be after period start")
	}
	return nil
}
