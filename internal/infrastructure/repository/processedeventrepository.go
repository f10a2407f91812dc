package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

type ProcessedEventRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewProcessedEventRepository(
	db *gorm.DB,
	logger logger.Interface,
) events.ProcessedEventStore {
	return &ProcessedEventRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *ProcessedEventRepositoryImpl) Exists(ctx context.Context, eventID, handlerName string) (bool, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.ProcessedEventModel{}).
		Where("event_id = ? AND handler_name = ?", eventID, handlerName).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to check processed event", "event_id", eventID, "handler", handlerName, "error", err)
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}

	return count > 0, nil
}

// MarkProcessed inserts the marker. A duplicate insert means another path
// already recorded the same (event, handler) pair and is treated as success.
func (r *ProcessedEventRepositoryImpl) MarkProcessed(ctx context.Context, eventID, handlerName string) error {
	model := &models.ProcessedEventModel{
		EventID:     eventID,
		HandlerName: handlerName,
		ProcessedAt: time.Now().UTC(),
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return nil
		}
		r.logger.Errorw("failed to mark event processed", "event_id", eventID, "handler", handlerName, "error", err)
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	return nil
}
