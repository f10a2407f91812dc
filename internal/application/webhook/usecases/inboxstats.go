package usecases

import (
	"context"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/webhook"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// InboxStats is the operator health view of the webhook inbox. A growing
// pending count means the worker is behind; a growing dead-letter count
// means something systemic is failing.
type InboxStats struct {
	Pending      int64 `json:"pending"`
	DeadLettered int64 `json:"dead_lettered"`
}

type GetInboxStatsUseCase struct {
	inboxRepo webhook.InboxRepository
	logger    logger.Interface
}

func NewGetInboxStatsUseCase(inboxRepo webhook.InboxRepository, logger logger.Interface) *GetInboxStatsUseCase {
	return &GetInboxStatsUseCase{
		inboxRepo: inboxRepo,
		logger:    logger,
	}
}

func (uc *GetInboxStatsUseCase) Execute(ctx context.Context) (*InboxStats, error) {
	pending, err := uc.inboxRepo.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending inbox messages: %w", err)
	}

	_, deadLettered, err := uc.inboxRepo.ListDeadLettered(ctx, webhook.DeadLetterFilter{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to count dead-lettered messages: %w", err)
	}

	return &InboxStats{Pending: pending, DeadLettered: deadLettered}, nil
}
