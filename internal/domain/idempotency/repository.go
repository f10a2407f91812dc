package idempotency

import (
	"context"
	"time"
)

// Repository persists idempotency records under a unique
// (tenant, operation, key) constraint.
type Repository interface {
	// Get returns the stored record, or nil when the key was never used.
	Get(ctx context.Context, tenantSID, operation, key string) (*Record, error)

	// Save stores the outcome of a first successful handling. A concurrent
	// duplicate insert surfaces as a duplicate-key error.
	Save(ctx context.Context, rec *Record) error

	// DeleteOlderThan removes records created before the cutoff and returns
	// the number deleted (retention sweep).
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
