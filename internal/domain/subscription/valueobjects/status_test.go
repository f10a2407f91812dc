package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    SubscriptionStatus
		to      SubscriptionStatus
		allowed bool
	}{
		{StatusTrial, StatusActive, true},
		{StatusTrial, StatusExpired, true},
		{StatusTrial, StatusPastDue, false},
		{StatusActive, StatusPastDue, true},
		{StatusActive, StatusCanceled, true},
		{StatusActive, StatusExpired, true},
		{StatusPastDue, StatusActive, true},
		{StatusPastDue, StatusCanceled, true},
		{StatusPastDue, StatusExpired, false},
		{StatusCanceled, StatusActive, false},
		{StatusExpired, StatusActive, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCanceled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.False(t, StatusTrial.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, StatusPastDue.IsTerminal())
}
