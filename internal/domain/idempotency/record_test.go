package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	rec, err := NewRecord("org_tenant01", "invoice.create", "key-123", HashPayload([]byte(`{}`)), "inv_abc", now)
	require.NoError(t, err)

	assert.Equal(t, "org_tenant01", rec.TenantSID)
	assert.Equal(t, "invoice.create", rec.Operation)
	assert.Equal(t, "key-123", rec.Key)
	assert.Equal(t, "inv_abc", rec.ResourceSID)
	assert.Equal(t, now, rec.CreatedAt)
}

func TestNewRecord_MissingFields(t *testing.T) {
	_, err := NewRecord("", "invoice.create", "key", "hash", "inv_abc", time.Now())
	assert.Error(t, err)

	_, err = NewRecord("org_tenant01", "", "key", "hash", "inv_abc", time.Now())
	assert.Error(t, err)

	_, err = NewRecord("org_tenant01", "invoice.create", "", "hash", "inv_abc", time.Now())
	assert.Error(t, err)
}

func TestHashPayload(t *testing.T) {
	a := HashPayload([]byte(`{"amount":100}`))
	b := HashPayload([]byte(`{"amount":100}`))
	c := HashPayload([]byte(`{"amount":200}`))

	assert.Equal(t, a, b, "same payload hashes the same")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64, "sha256 hex digest")

	// Known digest for the empty payload.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashPayload(nil))
}
