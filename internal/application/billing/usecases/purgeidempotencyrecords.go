package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/subtrack-inc/subtrack/internal/domain/idempotency"
	"github.com/subtrack-inc/subtrack/internal/shared/biztime"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// PurgeIdempotencyRecordsUseCase deletes idempotency records older than the
// retention window. After a record is purged the same key starts a fresh
// request, so retention should comfortably exceed any client retry horizon.
type PurgeIdempotencyRecordsUseCase struct {
	idempotencyRepo idempotency.Repository
	retention       time.Duration
	logger          logger.Interface
}

func NewPurgeIdempotencyRecordsUseCase(
	idempotencyRepo idempotency.Repository,
	retentionDays int,
	logger logger.Interface,
) *PurgeIdempotencyRecordsUseCase {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &PurgeIdempotencyRecordsUseCase{
		idempotencyRepo: idempotencyRepo,
		retention:       time.Duration(retentionDays) * 24 * time.Hour,
		logger:          logger,
	}
}

func (uc *PurgeIdempotencyRecordsUseCase) Execute(ctx context.Context) (int64, error) {
	cutoff := biztime.NowUTC().Add(-uc.retention)

	deleted, err := uc.idempotencyRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge idempotency records: %w", err)
	}

	if deleted > 0 {
		uc.logger.Infow("purged expired idempotency records",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
	return deleted, nil
}
