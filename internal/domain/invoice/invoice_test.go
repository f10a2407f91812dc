package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenInvoice(t *testing.T) *Invoice {
	t.Helper()
	now := time.Now().UTC()
	inv, err := NewInvoice("org_tenant01", "sub_abc123", "starter", 900, "USD", now, now.AddDate(0, 1, 0), "evt_src001")
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	inv := newOpenInvoice(t)

	assert.Equal(t, StatusOpen, inv.Status())
	assert.Equal(t, int64(900), inv.AmountCents())
	assert.Equal(t, "USD", inv.Currency())
	assert.Equal(t, "evt_src001", inv.SourceEventID())
	assert.Nil(t, inv.PaidAt())
}

func TestNewInvoice_Validation(t *testing.T) {
	now := time.Now()

	_, err := NewInvoice("", "sub_abc", "starter", 900, "USD", now, now.AddDate(0, 1, 0), "")
	assert.Error(t, err)

	_, err = NewInvoice("org_t", "", "starter", 900, "USD", now, now.AddDate(0, 1, 0), "")
	assert.Error(t, err)

	_, err = NewInvoice("org_t", "sub_abc", "starter", -1, "USD", now, now.AddDate(0, 1, 0), "")
	assert.Error(t, err)

	_, err = NewInvoice("org_t", "sub_abc", "starter", 0, "USD", now, now.AddDate(0, 1, 0), "")
	assert.Error(t, err, "free periods never produce an invoice")

	_, err = NewInvoice("org_t", "sub_abc", "starter", 900, "USD", now, now.AddDate(0, -1, 0), "")
	assert.Error(t, err)
}

func TestNewInvoice_DefaultsCurrency(t *testing.T) {
	now := time.Now()
	inv, err := NewInvoice("org_t", "sub_abc", "starter", 900, "", now, now.AddDate(0, 1, 0), "")
	require.NoError(t, err)
	assert.Equal(t, "USD", inv.Currency())
}

func TestMarkPaid(t *testing.T) {
	inv := newOpenInvoice(t)
	now := time.Now()

	require.NoError(t, inv.MarkPaid(now))
	assert.Equal(t, StatusPaid, inv.Status())
	require.NotNil(t, inv.PaidAt())

	firstPaidAt := *inv.PaidAt()
	require.NoError(t, inv.MarkPaid(now.Add(time.Hour)), "paying a paid invoice is a no-op")
	assert.Equal(t, firstPaidAt, *inv.PaidAt())
}

func TestVoid(t *testing.T) {
	inv := newOpenInvoice(t)

	require.NoError(t, inv.Void())
	assert.Equal(t, StatusVoid, inv.Status())

	require.NoError(t, inv.Void(), "voiding a void invoice is a no-op")

	assert.Error(t, inv.MarkPaid(time.Now()), "void invoices cannot be paid")
}

func TestVoid_RejectedOnPaid(t *testing.T) {
	inv := newOpenInvoice(t)
	require.NoError(t, inv.MarkPaid(time.Now()))

	assert.Error(t, inv.Void())
}
