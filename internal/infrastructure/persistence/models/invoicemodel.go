package models

import (
	"time"

	"github.com/subtrack-inc/subtrack/internal/shared/constants"
)

// InvoiceModel is the database persistence model for invoices.
//
// SourceEventID is NULL for operator-created invoices and carries the
// originating domain event ID otherwise. The unique index on it makes
// event-driven invoice creation idempotent even when the processed-event
// check races with a concurrent dispatch.
type InvoiceModel struct {
	ID              uint    `gorm:"primarykey"`
	SID             string  `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: inv_xxx"`
	TenantSID       string  `gorm:"column:tenant_sid;not null;size:50;index:idx_tenant_invoice"`
	SubscriptionSID string  `gorm:"column:subscription_sid;not null;size:50;index:idx_subscription_invoice"`
	PlanCode        string  `gorm:"not null;size:50"`
	AmountCents     int64   `gorm:"not null"`
	Currency        string  `gorm:"not null;size:3"`
	Status          string  `gorm:"not null;size:20;index:idx_invoice_status"`
	PeriodStart     time.Time
	PeriodEnd       time.Time
	SourceEventID   *string `gorm:"uniqueIndex;size:50"`
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (InvoiceModel) TableName() string {
	return constants.TableInvoices
}
