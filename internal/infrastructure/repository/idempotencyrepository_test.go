package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrack-inc/subtrack/internal/domain/idempotency"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
)

func newIdempotencyRecord(t *testing.T, key string, createdAt time.Time) *idempotency.Record {
	t.Helper()
	rec, err := idempotency.NewRecord("org_tenant01", "invoice.create", key,
		idempotency.HashPayload([]byte(`{"amount":900}`)), "inv_abc123", createdAt)
	require.NoError(t, err)
	return rec
}

func TestIdempotencyRepository_SaveAndGet(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	rec := newIdempotencyRecord(t, "key-123", time.Now())
	require.NoError(t, repo.Save(ctx, rec))

	found, err := repo.Get(ctx, "org_tenant01", "invoice.create", "key-123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, rec.RequestHash, found.RequestHash)
	assert.Equal(t, "inv_abc123", found.ResourceSID)
}

func TestIdempotencyRepository_Get_Missing(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t), testLogger())

	found, err := repo.Get(context.Background(), "org_tenant01", "invoice.create", "never-used")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestIdempotencyRepository_Save_DuplicateKeySurfaces(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newIdempotencyRecord(t, "key-123", time.Now())))

	err := repo.Save(ctx, newIdempotencyRecord(t, "key-123", time.Now()))
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateError(err), "caller needs the raw duplicate to detect a lost race")
}

func TestIdempotencyRepository_KeyScopedByTenantAndOperation(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newIdempotencyRecord(t, "key-123", time.Now())))

	other, err := idempotency.NewRecord("org_tenant02", "invoice.create", "key-123", "hash", "inv_other", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other), "same key under another tenant is a different request")

	otherOp, err := idempotency.NewRecord("org_tenant01", "invoice.void", "key-123", "hash", "inv_abc123", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, otherOp))
}

func TestIdempotencyRepository_DeleteOlderThan(t *testing.T) {
	repo := NewIdempotencyRepository(setupTestDB(t), testLogger())
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Save(ctx, newIdempotencyRecord(t, "old-key", now.AddDate(0, 0, -40))))
	require.NoError(t, repo.Save(ctx, newIdempotencyRecord(t, "fresh-key", now)))

	deleted, err := repo.DeleteOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	kept, err := repo.Get(ctx, "org_tenant01", "invoice.create", "fresh-key")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	gone, err := repo.Get(ctx, "org_tenant01", "invoice.create", "old-key")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
