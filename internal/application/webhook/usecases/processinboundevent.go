package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/application/shared/uow"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription/valueobjects"
	"github.com/subtrack-inc/subtrack/internal/domain/webhook"
	"github.com/subtrack-inc/subtrack/internal/shared/biztime"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// Provider event types the processor understands.
const (
	ProviderEventPaymentSucceeded      = "payment.succeeded"
	ProviderEventPaymentFailed         = "payment.failed"
	ProviderEventPaymentActionRequired = "payment.action_required"
	ProviderEventSubscriptionCanceled  = "customer.subscription.canceled"
)

// providerEventPayload is the wire shape of a provider event. The raw bytes
// stay opaque in the inbox and are re-parsed here on every attempt.
type providerEventPayload struct {
	SubscriptionSID string `json:"subscription"`
	TenantSID       string `json:"tenant"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// ProcessInboundEventUseCase translates staged provider events into
// subscription lifecycle transitions, committed through the same unit of
// work as API-driven mutations. Any returned error sends the inbox message
// into retry/backoff; unknown event types are treated as handled so new
// provider features never clog the queue.
type ProcessInboundEventUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	unitOfWork       *uow.UnitOfWork
	logger           logger.Interface
}

func NewProcessInboundEventUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	unitOfWork *uow.UnitOfWork,
	logger logger.Interface,
) *ProcessInboundEventUseCase {
	return &ProcessInboundEventUseCase{
		subscriptionRepo: subscriptionRepo,
		unitOfWork:       unitOfWork,
		logger:           logger,
	}
}

func (uc *ProcessInboundEventUseCase) Execute(ctx context.Context, msg *webhook.InboxMessage) error {
	var payload providerEventPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed provider payload: %w", err)
	}
	if payload.SubscriptionSID == "" {
		return fmt.Errorf("provider payload missing subscription reference")
	}

	sub, err := uc.subscriptionRepo.GetBySID(ctx, payload.SubscriptionSID)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return fmt.Errorf("subscription %s not found", payload.SubscriptionSID)
	}

	versionBefore := sub.Version()

	switch msg.EventType() {
	case ProviderEventPaymentSucceeded:
		err = uc.applyPaymentSucceeded(sub)
	case ProviderEventPaymentFailed:
		err = uc.applyPaymentFailed(sub)
	case ProviderEventPaymentActionRequired:
		// Informational; the provider follows up with succeeded or failed.
		uc.logger.Infow("payment waiting on customer action",
			"subscription_sid", sub.SID(),
			"external_event_id", msg.ExternalEventID(),
		)
		return nil
	case ProviderEventSubscriptionCanceled:
		err = sub.Cancel()
	default:
		uc.logger.Infow("ignoring unsupported provider event type",
			"event_type", msg.EventType(),
			"external_event_id", msg.ExternalEventID(),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if sub.Version() == versionBefore {
		// Nothing changed; skip the write.
		return nil
	}

	return uc.unitOfWork.Commit(ctx, func(txCtx context.Context) error {
		return uc.subscriptionRepo.Update(txCtx, sub)
	}, sub)
}

func (uc *ProcessInboundEventUseCase) applyPaymentSucceeded(sub *subscription.Subscription) error {
	now := biztime.NowUTC()

	switch sub.Status() {
	case valueobjects.StatusTrial, valueobjects.StatusPastDue:
		return sub.Activate(now)
	case valueobjects.StatusActive:
		err := sub.AdvancePeriod(now)
		if errors.Is(err, subscription.ErrPeriodNotEnded) {
			// Early renewal payment; the period rolls at its natural end.
			uc.logger.Debugw("payment received before period end, nothing to advance",
				"subscription_sid", sub.SID(),
				"period_end", sub.PeriodEnd(),
			)
			return nil
		}
		return err
	default:
		return fmt.Errorf("payment succeeded for subscription %s in status %s", sub.SID(), sub.Status())
	}
}

func (uc *ProcessInboundEventUseCase) applyPaymentFailed(sub *subscription.Subscription) error {
	switch sub.Status() {
	case valueobjects.StatusActive:
		return sub.MarkPastDue()
	case valueobjects.StatusPastDue:
		// Already flagged; the lifecycle sweep handles the grace window.
		return nil
	default:
		uc.logger.Warnw("payment failure for subscription outside billable states",
			"subscription_sid", sub.SID(),
			"status", sub.Status().String(),
		)
		return nil
	}
}
