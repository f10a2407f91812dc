package usecases

import (
	"context"
	"time"

	"github.com/subtrack-inc/subtrack/internal/domain/invoice"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
	"github.com/subtrack-inc/subtrack/internal/shared/mapper"
)

// InvoiceDTO is the read model returned by invoice queries.
type InvoiceDTO struct {
	SID             string     `json:"sid"`
	TenantSID       string     `json:"tenant_sid"`
	SubscriptionSID string     `json:"subscription_sid"`
	PlanCode        string     `json:"plan_code"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	PeriodStart     time.Time  `json:"period_start"`
	PeriodEnd       time.Time  `json:"period_end"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toInvoiceDTO(inv *invoice.Invoice) *InvoiceDTO {
	return &InvoiceDTO{
		SID:             inv.SID(),
		TenantSID:       inv.TenantSID(),
		SubscriptionSID: inv.SubscriptionSID(),
		PlanCode:        inv.PlanCode(),
		AmountCents:     inv.AmountCents(),
		Currency:        inv.Currency(),
		Status:          string(inv.Status()),
		PeriodStart:     inv.PeriodStart(),
		PeriodEnd:       inv.PeriodEnd(),
		PaidAt:          inv.PaidAt(),
		CreatedAt:       inv.CreatedAt(),
	}
}

// ListInvoicesQuery filters the tenant's invoice history.
type ListInvoicesQuery struct {
	TenantSID string
	Page      int
	PageSize  int
}

// ListInvoicesResult holds a page of invoices
type ListInvoicesResult struct {
	Invoices []*InvoiceDTO
	Total    int64
	Page     int
	PageSize int
}

// ListInvoicesUseCase handles listing a tenant's invoices
type ListInvoicesUseCase struct {
	invoiceRepo invoice.InvoiceRepository
	logger      logger.Interface
}

func NewListInvoicesUseCase(invoiceRepo invoice.InvoiceRepository, logger logger.Interface) *ListInvoicesUseCase {
	return &ListInvoicesUseCase{invoiceRepo: invoiceRepo, logger: logger}
}

func (uc *ListInvoicesUseCase) Execute(ctx context.Context, query ListInvoicesQuery) (*ListInvoicesResult, error) {
	if query.TenantSID == "" {
		return nil, apperrors.NewBadRequestError("tenant_sid is required")
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = 20
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}

	invoices, total, err := uc.invoiceRepo.ListByTenant(ctx, query.TenantSID, query.Page, query.PageSize)
	if err != nil {
		return nil, err
	}

	return &ListInvoicesResult{
		Invoices: mapper.MapSlice(invoices, toInvoiceDTO),
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}, nil
}
