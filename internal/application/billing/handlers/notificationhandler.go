package handlers

import (
	"context"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// NotificationHandlerName is the stable handler identity for processed-event
// markers.
const NotificationHandlerName = "billing.lifecycle_notifier"

// Notifier delivers lifecycle notices. Sending is at-least-once toward the
// mail provider; exactly-once applies to invoking the notifier per event.
type Notifier interface {
	NotifySubscriptionExpired(ctx context.Context, tenantSID, subscriptionSID string) error
	NotifySubscriptionCanceledForNonPayment(ctx context.Context, tenantSID, subscriptionSID string) error
}

// NotificationHandler emails lifecycle notices for expiry and nonpayment
// cancellation, deduplicated through the processed-event guard.
type NotificationHandler struct {
	processed events.ProcessedEventStore
	notifier  Notifier
	logger    logger.Interface
}

func NewNotificationHandler(
	processed events.ProcessedEventStore,
	notifier Notifier,
	logger logger.Interface,
) *NotificationHandler {
	return &NotificationHandler{
		processed: processed,
		notifier:  notifier,
		logger:    logger,
	}
}

func (h *NotificationHandler) Name() string {
	return NotificationHandlerName
}

func (h *NotificationHandler) Handle(ctx context.Context, event events.DomainEvent) error {
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

	switch event.GetEventType() {
	case subscription.EventTypeExpired:
		err = h.notifier.NotifySubscriptionExpired(ctx, event.GetTenantSID(), event.GetAggregateSID())
	case subscription.EventTypeCanceledForNonPayment:
		err = h.notifier.NotifySubscriptionCanceledForNonPayment(ctx, event.GetTenantSID(), event.GetAggregateSID())
	default:
		h.logger.Warnw("notification handler received unexpected event type",
			"event_type", event.GetEventType(),
			"event_id", event.GetEventID(),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to send lifecycle notice: %w", err)
	}

	return h.processed.MarkProcessed(ctx, event.GetEventID(), h.Name())
}
