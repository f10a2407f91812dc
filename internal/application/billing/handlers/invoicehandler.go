package handlers

import (
	"context"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/application/billing"
	"github.com/subtrack-inc/subtrack/internal/domain/invoice"
	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// InvoiceHandlerName is the stable handler identity used in processed-event
// markers. Renaming it would re-run past side effects on replay.
const InvoiceHandlerName = "billing.invoice_generator"

// InvoiceHandler creates an invoice for the current billing period when a
// subscription activates or renews. It reads the subscription's committed
// state rather than event payload extras, so replayed envelope-only events
// behave the same as the original dispatch.
//
// Exactly-once is layered: the processed-event marker skips completed work,
// and the invoice table's unique source_event_id index stops the
// check-then-act race when two dispatch paths run the handler concurrently.
type InvoiceHandler struct {
	processed        events.ProcessedEventStore
	invoiceRepo      invoice.InvoiceRepository
	subscriptionRepo subscription.SubscriptionRepository
	catalog          billing.PlanCatalog
	logger           logger.Interface
}

func NewInvoiceHandler(
	processed events.ProcessedEventStore,
	invoiceRepo invoice.InvoiceRepository,
	subscriptionRepo subscription.SubscriptionRepository,
	catalog billing.PlanCatalog,
	logger logger.Interface,
) *InvoiceHandler {
	return &InvoiceHandler{
		processed:        processed,
		invoiceRepo:      invoiceRepo,
		subscriptionRepo: subscriptionRepo,
		catalog:          catalog,
		logger:           logger,
	}
}

func (h *InvoiceHandler) Name() string {
	return InvoiceHandlerName
}

func (h *InvoiceHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	done, err := h.processed.Exists(ctx, event.GetEventID(), h.Name())
	if err != nil {
		return fmt.Errorf("failed to check processed marker: %w", err)
	}
	if done {
		h.logger.Debugw("event already processed, skipping",
			"event_id", event.GetEventID(),
			"handler", h.Name(),
		)
		return nil
	}

	sub, err := h.subscriptionRepo.GetBySID(ctx, event.GetAggregateSID())
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("subscription %s not found for event %s", event.GetAggregateSID(), event.GetEventID())
	}

	price, err := h.catalog.PriceFor(sub.PlanCode())
	if err != nil {
		return fmt.Errorf("failed to price plan: %w", err)
	}

	inv, err := invoice.NewInvoice(
		sub.TenantSID(),
		sub.SID(),
		sub.PlanCode(),
		price.AmountCents,
		price.Currency,
		sub.PeriodStart(),
		sub.PeriodEnd(),
		event.GetEventID(),
	)
	if err != nil {
		return fmt.Errorf("failed to build invoice: %w", err)
	}

	if err := h.invoiceRepo.Create(ctx, inv); err != nil {
		if !apperrors.IsDuplicateError(err) {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		// A concurrent dispatch already created it; fall through to mark.
		h.logger.Debugw("invoice already exists for event",
			"event_id", event.GetEventID(),
			"subscription_sid", sub.SID(),
		)
	} else {
		h.logger.Infow("invoice created",
			"invoice_sid", inv.SID(),
			"subscription_sid", sub.SID(),
			"amount_cents", inv.AmountCents(),
			"event_id", event.GetEventID(),
		)
	}

	return h.processed.MarkProcessed(ctx, event.GetEventID(), h.Name())
}
