package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/idempotency"
	"github.com/subtrack-inc/subtrack/internal/domain/invoice"
	"github.com/subtrack-inc/subtrack/internal/shared/biztime"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// OperationCreateInvoice scopes idempotency records for this use case.
const OperationCreateInvoice = "invoice.create"

// CreateInvoiceCommand carries the request data for a one-off invoice.
type CreateInvoiceCommand struct {
	TenantSID       string `json:"tenant_sid"`
	SubscriptionSID string `json:"subscription_sid"`
	PlanCode        string `json:"plan_code"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// CreateInvoiceResult reports the invoice and whether the request was a
// replay of an earlier one.
type CreateInvoiceResult struct {
	InvoiceSID string
	Replayed   bool
}

// CreateInvoiceUseCase creates an invoice with client-driven idempotency:
// the same (tenant, key, payload) always yields the same invoice, and the
// same key with a different payload is rejected as a conflict. The invoice
// row and the idempotency record commit in one transaction, so a crash
// between them cannot strand a half-recorded request.
type CreateInvoiceUseCase struct {
	invoiceRepo     invoice.InvoiceRepository
	idempotencyRepo idempotency.Repository
	tm              *db.TransactionManager
	logger          logger.Interface
}

func NewCreateInvoiceUseCase(
	invoiceRepo invoice.InvoiceRepository,
	idempotencyRepo idempotency.Repository,
	tm *db.TransactionManager,
	logger logger.Interface,
) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{
		invoiceRepo:     invoiceRepo,
		idempotencyRepo: idempotencyRepo,
		tm:              tm,
		logger:          logger,
	}
}

func (uc *CreateInvoiceUseCase) Execute(ctx context.Context, cmd CreateInvoiceCommand, idempotencyKey string) (*CreateInvoiceResult, error) {
	if idempotencyKey == "" {
		return nil, apperrors.NewBadRequestError("idempotency key is required")
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to hash request: %w", err)
	}
	requestHash := idempotency.HashPayload(payload)

	existing, err := uc.idempotencyRepo.Get(ctx, cmd.TenantSID, OperationCreateInvoice, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency record: %w", err)
	}
	if existing != nil {
		return uc.replay(existing, requestHash, idempotencyKey)
	}

	now := biztime.NowUTC()
	inv, err := invoice.NewInvoice(
		cmd.TenantSID,
		cmd.SubscriptionSID,
		cmd.PlanCode,
		cmd.AmountCents,
		cmd.Currency,
		now,
		now,
		"", // one-off invoices have no source event
	)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid invoice", err.Error())
	}

	rec, err := idempotency.NewRecord(cmd.TenantSID, OperationCreateInvoice, idempotencyKey, requestHash, inv.SID(), now)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid idempotency record", err.Error())
	}

	err = uc.tm.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.invoiceRepo.Create(txCtx, inv); err != nil {
			return err
		}
		return uc.idempotencyRepo.Save(txCtx, rec)
	})
	if err != nil {
		if apperrors.IsDuplicateError(err) {
			// Lost a race with a concurrent retry; replay its outcome.
			winner, gerr := uc.idempotencyRepo.Get(ctx, cmd.TenantSID, OperationCreateInvoice, idempotencyKey)
			if gerr != nil || winner == nil {
				return nil, fmt.Errorf("idempotency race lost but record unavailable: %w", err)
			}
			return uc.replay(winner, requestHash, idempotencyKey)
		}
		return nil, err
	}

	uc.logger.Infow("invoice created",
		"invoice_sid", inv.SID(),
		"tenant_sid", cmd.TenantSID,
		"idempotency_key", idempotencyKey,
	)

	return &CreateInvoiceResult{InvoiceSID: inv.SID()}, nil
}

func (uc *CreateInvoiceUseCase) replay(rec *idempotency.Record, requestHash, key string) (*CreateInvoiceResult, error) {
	if rec.RequestHash != requestHash {
		return nil, apperrors.NewConflictError("idempotency key reused with a different payload", key)
	}
	return &CreateInvoiceResult{InvoiceSID: rec.ResourceSID, Replayed: true}, nil
}
