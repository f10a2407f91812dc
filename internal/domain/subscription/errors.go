package subscription

import "errors"

var (
	// ErrInvalidTransition is returned when a lifecycle call is not allowed
	// from the subscription's current status. Callers must treat this as an
	// invariant violation, not as a retryable condition.
	ErrInvalidTransition = errors.New("invalid subscription status transition")

	// ErrPeriodNotEnded is returned by period-bound transitions invoked
	// before the current billing period has ended.
	ErrPeriodNotEnded = errors.New("current billing period has not ended")

	// ErrTenantHasSubscription is returned when a tenant already holds a
	// non-canceled subscription.
	ErrTenantHasSubscription = errors.New("tenant already has a non-canceled subscription")
)
