// Package idempotency stores the outcome of mutating API requests keyed by
// a caller-supplied idempotency key, so network retries collapse to one
// effect instead of duplicating resources.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Record remembers what a (tenant, operation, key) request produced.
type Record struct {
	TenantSID   string
	Operation   string
	Key         string
	RequestHash string
	ResourceSID string
	CreatedAt   time.Time
}

// NewRecord builds a record for a completed request.
func NewRecord(tenantSID, operation, key, requestHash, resourceSID string, now time.Time) (*Record, error) {
	if tenantSID == "" {
		return nil, fmt.Errorf("tenant SID is required")
	}
	if operation == "" {
		return nil, fmt.Errorf("operation is required")
	}
	if key == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}

	return &Record{
		TenantSID:   tenantSID,
		Operation:   operation,
		Key:         key,
		RequestHash: requestHash,
		ResourceSID: resourceSID,
		CreatedAt:   now.UTC(),
	}, nil
}

// HashPayload derives the request hash compared on replay. Same key with a
// different hash is a conflict, not a replay.
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
