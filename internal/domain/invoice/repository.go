package invoice

import (
	"context"
	"time"
)

// InvoiceRepository persists invoices. Create must surface unique-constraint
// violations on (subscription_sid, period_start) as duplicates so callers
// can treat a concurrent double-create as already-done.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetBySID(ctx context.Context, sid string) (*Invoice, error)
	GetBySubscriptionAndPeriod(ctx context.Context, subscriptionSID string, periodStart time.Time) (*Invoice, error)
	ListByTenant(ctx context.Context, tenantSID string, page, pageSize int) ([]*Invoice, int64, error)
	Update(ctx context.Context, inv *Invoice) error
}
