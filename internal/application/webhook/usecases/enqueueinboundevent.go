package usecases

import (
	"context"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/webhook"
	"github.com/subtrack-inc/subtrack/internal/shared/biztime"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// EnqueueInboundEventCommand carries a verified provider delivery. Signature
// verification happens at the HTTP boundary before this point.
type EnqueueInboundEventCommand struct {
	ExternalEventID string
	EventType       string
	Payload         []byte
}

// EnqueueInboundEventUseCase durably stages a provider event for the worker.
// Re-delivery of a known external event ID is acknowledged without storing
// a second row, so providers can retry as aggressively as they like.
type EnqueueInboundEventUseCase struct {
	inboxRepo webhook.InboxRepository
	logger    logger.Interface
}

func NewEnqueueInboundEventUseCase(
	inboxRepo webhook.InboxRepository,
	logger logger.Interface,
) *EnqueueInboundEventUseCase {
	return &EnqueueInboundEventUseCase{
		inboxRepo: inboxRepo,
		logger:    logger,
	}
}

func (uc *EnqueueInboundEventUseCase) Execute(ctx context.Context, cmd EnqueueInboundEventCommand) error {
	msg, err := webhook.NewInboxMessage(cmd.ExternalEventID, cmd.EventType, cmd.Payload, biztime.NowUTC())
	if err != nil {
		return apperrors.NewValidationError("invalid webhook event", err.Error())
	}

	inserted, err := uc.inboxRepo.Enqueue(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to enqueue webhook event: %w", err)
	}

	if !inserted {
		uc.logger.Debugw("duplicate webhook delivery ignored",
			"external_event_id", cmd.ExternalEventID,
			"event_type", cmd.EventType,
		)
		return nil
	}

	uc.logger.Infow("webhook event enqueued",
		"inbox_sid", msg.SID(),
		"external_event_id", cmd.ExternalEventID,
		"event_type", cmd.EventType,
	)
	return nil
}
