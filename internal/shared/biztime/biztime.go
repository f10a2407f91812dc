// Package biztime centralizes time handling for billing calculations.
// All storage and transport use UTC; implicit Local timezone is prohibited.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// AddMonth shifts t forward by one calendar month, preserving UTC.
func AddMonth(t time.Time) time.Time {
	return t.UTC().AddDate(0, 1, 0)
}

// AddDays shifts t forward by n days, preserving UTC.
func AddDays(t time.Time, n int) time.Time {
	return t.UTC().AddDate(0, 0, n)
}
