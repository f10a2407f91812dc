package valueobjects

import "fmt"

type SubscriptionStatus string

const (
	StatusTrial    SubscriptionStatus = "trial"
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusExpired  SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCanceled || s == StatusExpired
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
// Aggregate methods layer their own preconditions (period ended, grace
// window) on top of this status check.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusTrial:    {StatusActive, StatusExpired},
		StatusActive:   {StatusPastDue, StatusCanceled, StatusExpired},
		StatusPastDue:  {StatusActive, StatusCanceled},
		StatusCanceled: {},
		StatusExpired:  {},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

// ParseSubscriptionStatus validates a raw status string.
func ParseSubscriptionStatus(raw string) (SubscriptionStatus, error) {
	status := SubscriptionStatus(raw)
	if !ValidStatuses[status] {
		return "", fmt.Errorf("invalid subscription status: %s", raw)
	}
	return status, nil
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusTrial:    true,
	StatusActive:   true,
	StatusPastDue:  true,
	StatusCanceled: true,
	StatusExpired:  true,
}
