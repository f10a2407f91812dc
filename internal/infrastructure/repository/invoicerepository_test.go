package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrack-inc/subtrack/internal/domain/invoice"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
)

func createInvoice(t *testing.T, repo invoice.InvoiceRepository, tenantSID, sourceEventID string) *invoice.Invoice {
	t.Helper()
	now := time.Now().UTC()
	inv, err := invoice.NewInvoice(tenantSID, "sub_abc123", "starter", 900, "USD", now, now.AddDate(0, 1, 0), sourceEventID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), inv))
	return inv
}

func TestInvoiceRepository_CreateAndGet(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	inv := createInvoice(t, repo, "org_tenant01", "evt_src001")
	assert.NotZero(t, inv.ID())

	found, err := repo.GetBySID(ctx, inv.SID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, invoice.StatusOpen, found.Status())
	assert.Equal(t, "evt_src001", found.SourceEventID())
	assert.EqualValues(t, 900, found.AmountCents())
}

func TestInvoiceRepository_DuplicateSourceEvent(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t), testLogger())

	createInvoice(t, repo, "org_tenant01", "evt_src001")

	now := time.Now().UTC()
	dup, err := invoice.NewInvoice("org_tenant01", "sub_abc123", "starter", 900, "USD", now, now.AddDate(0, 1, 0), "evt_src001")
	require.NoError(t, err)

	err = repo.Create(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateError(err), "the unique source event index backs handler exactly-once")
}

func TestInvoiceRepository_OneOffInvoicesHaveNoSourceEvent(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	// Several one-off invoices may coexist; the empty source event ID maps
	// to NULL and never collides.
	first := createInvoice(t, repo, "org_tenant01", "")
	createInvoice(t, repo, "org_tenant01", "")

	found, err := repo.GetBySID(ctx, first.SID())
	require.NoError(t, err)
	assert.Empty(t, found.SourceEventID())
}

func TestInvoiceRepository_ListByTenant(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	createInvoice(t, repo, "org_tenant01", "evt_a")
	createInvoice(t, repo, "org_tenant01", "evt_b")
	createInvoice(t, repo, "org_tenant02", "evt_c")

	list, total, err := repo.ListByTenant(ctx, "org_tenant01", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = repo.ListByTenant(ctx, "org_tenant01", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 1)
}

func TestInvoiceRepository_UpdateMarksPaid(t *testing.T) {
	repo := NewInvoiceRepository(setupTestDB(t), testLogger())
	ctx := context.Background()

	inv := createInvoice(t, repo, "org_tenant01", "evt_src001")
	require.NoError(t, inv.MarkPaid(time.Now()))
	require.NoError(t, repo.Update(ctx, inv))

	found, err := repo.GetBySID(ctx, inv.SID())
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, found.Status())
	assert.NotNil(t, found.PaidAt())
}
