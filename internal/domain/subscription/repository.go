package subscription

import (
	"context"
	"time"
)

// SubscriptionFilter narrows List queries.
type SubscriptionFilter struct {
	TenantSID *string
	PlanCode  *string
	Status    *string
	Page      int
	PageSize  int
	SortBy    string
	SortDesc  bool
}

// SubscriptionRepository persists the subscription aggregate.
//
// Update must perform an optimistic-concurrency check on the version token:
// a write based on a stale read fails with a concurrency conflict instead of
// silently overwriting.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	GetNonCanceledByTenant(ctx context.Context, tenantSID string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	List(ctx context.Context, filter SubscriptionFilter) ([]*Subscription, int64, error)

	// FindDueForExpiry returns trial/active subscriptions whose period ended
	// at or before now, oldest first.
	FindDueForExpiry(ctx context.Context, now time.Time) ([]*Subscription, error)

	// FindPastDueOlderThan returns past-due subscriptions whose period ended
	// at or before the cutoff, oldest first. Used by the lifecycle sweep to
	// cancel for nonpayment once the grace window lapses.
	FindPastDueOlderThan(ctx context.Context, cutoff time.Time) ([]*Subscription, error)
}
