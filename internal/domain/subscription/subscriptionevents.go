package subscription

import (
	"time"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
)

// Event type tags used by the dispatcher registry and the outbox.
const (
	EventTypeActivated             = "subscription.activated"
	EventTypeExpired               = "subscription.expired"
	EventTypePeriodAdvanced        = "subscription.period_advanced"
	EventTypeCanceledForNonPayment = "subscription.canceled_for_nonpayment"
)

// SubscriptionActivatedEvent represents a trial or past-due subscription
// becoming active.
type SubscriptionActivatedEvent struct {
	events.BaseEvent
	PlanCode    string    `json:"plan_code"`
	ActivatedAt time.Time `json:"activated_at"`
}

func NewSubscriptionActivatedEvent(subscriptionSID, tenantSID, planCode string, activatedAt time.Time) *SubscriptionActivatedEvent {
	return &SubscriptionActivatedEvent{
		BaseEvent:   events.NewBaseEvent(EventTypeActivated, subscriptionSID, tenantSID, activatedAt),
		PlanCode:    planCode,
		ActivatedAt: activatedAt.UTC(),
	}
}

// SubscriptionExpiredEvent represents subscription expiration
type SubscriptionExpiredEvent struct {
	events.BaseEvent
	PlanCode  string    `json:"plan_code"`
	ExpiredAt time.Time `json:"expired_at"`
}

func NewSubscriptionExpiredEvent(subscriptionSID, tenantSID, planCode string, expiredAt time.Time) *SubscriptionExpiredEvent {
	return &SubscriptionExpiredEvent{
		BaseEvent: events.NewBaseEvent(EventTypeExpired, subscriptionSID, tenantSID, expiredAt),
		PlanCode:  planCode,
		ExpiredAt: expiredAt.UTC(),
	}
}

// SubscriptionPeriodAdvancedEvent represents a paid renewal rolling the
// billing period forward.
type SubscriptionPeriodAdvancedEvent struct {
	events.BaseEvent
	PlanCode    string    `json:"plan_code"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

func NewSubscriptionPeriodAdvancedEvent(subscriptionSID, tenantSID, planCode string, periodStart, periodEnd, now time.Time) *SubscriptionPeriodAdvancedEvent {
	return &SubscriptionPeriodAdvancedEvent{
		BaseEvent:   events.NewBaseEvent(EventTypePeriodAdvanced, subscriptionSID, tenantSID, now),
		PlanCode:    planCode,
		PeriodStart: periodStart.UTC(),
		PeriodEnd:   periodEnd.UTC(),
	}
}

// SubscriptionCanceledForNonPaymentEvent represents cancellation after the
// past-due grace window lapsed without payment.
type SubscriptionCanceledForNonPaymentEvent struct {
	events.BaseEvent
	PlanCode   string    `json:"plan_code"`
	CanceledAt time.Time `json:"canceled_at"`
}

func NewSubscriptionCanceledForNonPaymentEvent(subscriptionSID, tenantSID, planCode string, canceledAt time.Time) *SubscriptionCanceledForNonPaymentEvent {
	return &SubscriptionCanceledForNonPaymentEvent{
		BaseEvent:  events.NewBaseEvent(EventTypeCanceledForNonPayment, subscriptionSID, tenantSID, canceledAt),
		PlanCode:   planCode,
		CanceledAt: canceledAt.UTC(),
	}
}
