package invoice

import (
	"fmt"
	"time"

	"github.com/subtrack-inc/subtrack/internal/shared/id"
)

// InvoiceStatus is the settlement state of an invoice.
type InvoiceStatus string

const (
	StatusOpen InvoiceStatus = "open"
	StatusPaid InvoiceStatus = "paid"
	StatusVoid InvoiceStatus = "void"
)

// Invoice is the billing artifact produced by renewal and activation
// handlers. Invoices carry the event that caused them: the unique
// source_event_id column backs the handlers' exactly-once guarantee when
// the processed-event check races with itself.
type Invoice struct {
	id              uint
	sid             string
	tenantSID       string
	subscriptionSID string
	planCode        string
	amountCents     int64
	currency        string
	periodStart     time.Time
	periodEnd       time.Time
	status          InvoiceStatus
	sourceEventID   string
	createdAt       time.Time
	paidAt          *time.Time
}

// NewInvoice creates an open invoice for one billing period.
func NewInvoice(tenantSID, subscriptionSID, planCode string, amountCents int64, currency string, periodStart, periodEnd time.Time, sourceEventID string) (*Invoice, error) {
	if tenantSID == "" {
		return nil, fmt.Errorf("tenant SID is required")
	}
	if subscriptionSID == "" {
		return nil, fmt.Errorf("subscription SID is required")
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if currency == "" {
		currency = "USD"
	}
	if periodEnd.Before(periodStart) {
		return nil, fmt.Errorf("period end must be after period start")
	}

	return &Invoice{
		sid:             id.MustGenerateWithPrefix(id.PrefixInvoice, id.DefaultLength),
		tenantSID:       tenantSID,
		subscriptionSID: subscriptionSID,
		planCode:        planCode,
		amountCents:     amountCents,
		currency:        currency,
		periodStart:     periodStart.UTC(),
		periodEnd:       periodEnd.UTC(),
		status:          StatusOpen,
		sourceEventID:   sourceEventID,
		createdAt:       time.Now().UTC(),
	}, nil
}

// InvoiceReconstructParams carries persisted state back into the entity.
type InvoiceReconstructParams struct {
	ID              uint
	SID             string
	TenantSID       string
	SubscriptionSID string
	PlanCode        string
	AmountCents     int64
	Currency        string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Status          InvoiceStatus
	SourceEventID   string
	CreatedAt       time.Time
	PaidAt          *time.Time
}

// ReconstructInvoice rebuilds an invoice from persistence.
func ReconstructInvoice(p InvoiceReconstructParams) (*Invoice, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("invoice ID cannot be zero")
	}
	if p.SID == "" {
		return nil, fmt.Errorf("invoice SID is required")
	}

	return &Invoice{
		id:              p.ID,
		sid:             p.SID,
		tenantSID:       p.TenantSID,
		subscriptionSID: p.SubscriptionSID,
		planCode:        p.PlanCode,
		amountCents:     p.AmountCents,
		currency:        p.Currency,
		periodStart:     p.PeriodStart,
		periodEnd:       p.PeriodEnd,
		status:          p.Status,
		sourceEventID:   p.SourceEventID,
		createdAt:       p.CreatedAt,
		paidAt:          p.PaidAt,
	}, nil
}

func (i *Invoice) ID() uint                { return i.id }
func (i *Invoice) SID() string             { return i.sid }
func (i *Invoice) TenantSID() string       { return i.tenantSID }
func (i *Invoice) SubscriptionSID() string { return i.subscriptionSID }
func (i *Invoice) PlanCode() string        { return i.planCode }
func (i *Invoice) AmountCents() int64      { return i.amountCents }
func (i *Invoice) Currency() string        { return i.currency }
func (i *Invoice) PeriodStart() time.Time  { return i.periodStart }
func (i *Invoice) PeriodEnd() time.Time    { return i.periodEnd }
func (i *Invoice) Status() InvoiceStatus   { return i.status }
func (i *Invoice) SourceEventID() string   { return i.sourceEventID }
func (i *Invoice) CreatedAt() time.Time    { return i.createdAt }
func (i *Invoice) PaidAt() *time.Time      { return i.paidAt }

// SetID sets the invoice ID (only for persistence layer use)
func (i *Invoice) SetID(id uint) error {
	if i.id != 0 {
		return fmt.Errorf("invoice ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("invoice ID cannot be zero")
	}
	i.id = id
	return nil
}

// MarkPaid settles an open invoice.
func (i *Invoice) MarkPaid(now time.Time) error {
	if i.status == StatusPaid {
		return nil
	}
	if i.status != StatusOpen {
		return fmt.Errorf("cannot pay invoice with status %s", i.status)
	}
	now = now.UTC()
	i.status = StatusPaid
	i.paidAt = &now
	return nil
}

// Void cancels an open invoice.
func (i *Invoice) Void() error {
	if i.status == StatusVoid {
		return nil
	}
	if i.status != StatusOpen {
		return fmt.Errorf("cannot void invoice with status %s", i.status)
	}
	i.status = StatusVoid
	return nil
}
