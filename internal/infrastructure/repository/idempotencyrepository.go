package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/subtrack-inc/subtrack/internal/domain/idempotency"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

type IdempotencyRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewIdempotencyRepository(
	db *gorm.DB,
	logger logger.Interface,
) idempotency.Repository {
	return &IdempotencyRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *IdempotencyRepositoryImpl) Get(ctx context.Context, tenantSID, operation, key string) (*idempotency.Record, error) {
	var model models.IdempotencyRecordModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("tenant_sid = ? AND operation = ? AND idempotency_key = ?", tenantSID, operation, key).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get idempotency record", "tenant_sid", tenantSID, "operation", operation, "error", err)
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}

	return &idempotency.Record{
		TenantSID:   model.TenantSID,
		Operation:   model.Operation,
		Key:         model.IdempotencyKey,
		RequestHash: model.RequestHash,
		ResourceSID: model.ResourceSID,
		CreatedAt:   model.CreatedAt,
	}, nil
}

// Save inserts the record. Duplicate-key errors pass through unwrapped so
// the caller can detect a lost race and replay the winner's outcome.
func (r *IdempotencyRepositoryImpl) Save(ctx context.Context, record *idempotency.Record) error {
	model := &models.IdempotencyRecordModel{
		TenantSID:      record.TenantSID,
		Operation:      record.Operation,
		IdempotencyKey: record.Key,
		RequestHash:    record.RequestHash,
		ResourceSID:    record.ResourceSID,
		CreatedAt:      record.CreatedAt,
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return err
	}

	return nil
}

func (r *IdempotencyRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.
		Where("created_at < ?", cutoff).
		Delete(&models.IdempotencyRecordModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete expired idempotency records", "error", result.Error)
		return 0, fmt.Errorf("failed to delete idempotency records: %w", result.Error)
	}

	return result.RowsAffected, nil
}
