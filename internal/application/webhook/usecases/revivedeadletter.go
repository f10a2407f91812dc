package usecases

import (
	"context"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/webhook"
	"github.com/subtrack-inc/subtrack/internal/shared/biztime"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// ReviveDeadLetterUseCase puts a dead-lettered message back into the
// worker's queue with a fresh attempt budget. Meant for operators after
// fixing whatever made processing fail.
type ReviveDeadLetterUseCase struct {
	inboxRepo webhook.InboxRepository
	logger    logger.Interface
}

func NewReviveDeadLetterUseCase(inboxRepo webhook.InboxRepository, logger logger.Interface) *ReviveDeadLetterUseCase {
	return &ReviveDeadLetterUseCase{
		inboxRepo: inboxRepo,
		logger:    logger,
	}
}

func (uc *ReviveDeadLetterUseCase) Execute(ctx context.Context, sid string) error {
	msg, err := uc.inboxRepo.GetBySID(ctx, sid)
	if err != nil {
		return fmt.Errorf("failed to load inbox message: %w", err)
	}
	if msg == nil {
		return apperrors.NewNotFoundError("inbox message", sid)
	}

	if err := msg.Revive(biztime.NowUTC()); err != nil {
		return apperrors.NewValidationError("cannot revive message", err.Error())
	}

	if err := uc.inboxRepo.Update(ctx, msg); err != nil {
		return fmt.Errorf("failed to update inbox message: %w", err)
	}

	uc.logger.Infow("dead letter revived",
		"inbox_sid", sid,
		"external_event_id", msg.ExternalEventID(),
		"event_type", msg.EventType(),
	)
	return nil
}
