package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedEventRepository_MarkAndExists(t *testing.T) {
	repo := NewProcessedEventRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	done, err := repo.Exists(ctx, "evt_001", "billing.invoice_generator")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, repo.MarkProcessed(ctx, "evt_001", "billing.invoice_generator"))

	done, err = repo.Exists(ctx, "evt_001", "billing.invoice_generator")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestProcessedEventRepository_DuplicateMarkIsNoOp(t *testing.T) {
	repo := NewProcessedEventRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, repo.MarkProcessed(ctx, "evt_001", "billing.invoice_generator"))
	require.NoError(t, repo.MarkProcessed(ctx, "evt_001", "billing.invoice_generator"),
		"losing the marker race is success, not failure")
}

func TestProcessedEventRepository_MarkersAreScopedPerHandler(t *testing.T) {
	repo := NewProcessedEventRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, repo.MarkProcessed(ctx, "evt_001", "billing.invoice_generator"))

	done, err := repo.Exists(ctx, "evt_001", "billing.lifecycle_notifier")
	require.NoError(t, err)
	assert.False(t, done, "another handler has not seen the event yet")

	done, err = repo.Exists(ctx, "evt_002", "billing.invoice_generator")
	require.NoError(t, err)
	assert.False(t, done, "another event is untouched")
}
