package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/subtrack-inc/subtrack/internal/domain/webhook"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/mappers"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// allowedDeadLetterSortByFields defines the whitelist of allowed ORDER BY fields
// to prevent SQL injection attacks.
var allowedDeadLetterSortByFields = map[string]bool{
	"dead_lettered_at":  true,
	"received_at":       true,
	"attempt_count":     true,
	"event_type":        true,
	"external_event_id": true,
}

type InboxRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.InboxMapper
	logger logger.Interface
}

func NewInboxRepository(
	db *gorm.DB,
	logger logger.Interface,
) webhook.InboxRepository {
	return &InboxRepositoryImpl{
		db:     db,
		mapper: mappers.NewInboxMapper(),
		logger: logger,
	}
}

// Enqueue inserts the message, reporting inserted=false when the external
// event ID already exists. The unique index does the dedup; races between
// concurrent deliveries of the same event collapse to one row.
func (r *InboxRepositoryImpl) Enqueue(ctx context.Context, msg *webhook.InboxMessage) (bool, error) {
	model, err := r.mapper.ToModel(msg)
	if err != nil {
		return false, fmt.Errorf("failed to map inbox message: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return false, nil
		}
		r.logger.Errorw("failed to enqueue inbox message", "external_event_id", model.ExternalEventID, "error", err)
		return false, fmt.Errorf("failed to enqueue inbox message: %w", err)
	}

	if err := msg.SetID(model.ID); err != nil {
		return false, fmt.Errorf("failed to set inbox message ID: %w", err)
	}

	return true, nil
}

// ClaimBatch returns pending messages eligible for processing now, oldest
// first. Processed, dead-lettered, and backed-off messages are excluded.
func (r *InboxRepositoryImpl) ClaimBatch(ctx context.Context, limit int, now time.Time) ([]*webhook.InboxMessage, error) {
	var modelList []*models.WebhookInboxModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("processed_at IS NULL AND dead_lettered_at IS NULL AND (next_attempt_at IS NULL OR next_attempt_at <= ?)", now).
		Order("received_at ASC").
		Limit(limit).
		Find(&modelList).Error
	if err != nil {
		r.logger.Errorw("failed to claim inbox batch", "error", err)
		return nil, fmt.Errorf("failed to claim inbox batch: %w", err)
	}

	return r.mapper.ToEntities(modelList)
}

func (r *InboxRepositoryImpl) Update(ctx context.Context, msg *webhook.InboxMessage) error {
	model, err := r.mapper.ToModel(msg)
	if err != nil {
		return fmt.Errorf("failed to map inbox message: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.WebhookInboxModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"processed_at":     model.ProcessedAt,
			"attempt_count":    model.AttemptCount,
			"next_attempt_at":  model.NextAttemptAt,
			"last_error":       model.LastError,
			"dead_lettered_at": model.DeadLetteredAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update inbox message", "sid", model.SID, "error", result.Error)
		return fmt.Errorf("failed to update inbox message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("inbox message %s not found", model.SID)
	}

	return nil
}

func (r *InboxRepositoryImpl) GetBySID(ctx context.Context, sid string) (*webhook.InboxMessage, error) {
	var model models.WebhookInboxModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get inbox message by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get inbox message: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *InboxRepositoryImpl) GetByExternalEventID(ctx context.Context, externalEventID string) (*webhook.InboxMessage, error) {
	var model models.WebhookInboxModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("external_event_id = ?", externalEventID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get inbox message by external event ID",
			"external_event_id", externalEventID, "error", err)
		return nil, fmt.Errorf("failed to get inbox message: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *InboxRepositoryImpl) ListDeadLettered(ctx context.Context, filter webhook.DeadLetterFilter) ([]*webhook.InboxMessage, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Model(&models.WebhookInboxModel{}).Where("dead_lettered_at IS NOT NULL")

	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("external_event_id LIKE ? OR last_error LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count dead-lettered messages", "error", err)
		return nil, 0, fmt.Errorf("failed to count dead letters: %w", err)
	}

	// Newest first unless the operator picked a sort column.
	order := "dead_lettered_at DESC"
	if allowedDeadLetterSortByFields[filter.SortBy] {
		order = filter.SortBy + " ASC"
		if filter.SortDesc {
			order = filter.SortBy + " DESC"
		}
	}

	var modelList []*models.WebhookInboxModel
	err := query.
		Order(order).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&modelList).Error
	if err != nil {
		r.logger.Errorw("failed to list dead-lettered messages", "error", err)
		return nil, 0, fmt.Errorf("failed to list dead letters: %w", err)
	}

	entities, err := r.mapper.ToEntities(modelList)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to map dead letters: %w", err)
	}

	return entities, total, nil
}

func (r *InboxRepositoryImpl) CountPending(ctx context.Context) (int64, error) {
	var count int64

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.WebhookInboxModel{}).
		Where("processed_at IS NULL AND dead_lettered_at IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending inbox messages: %w", err)
	}

	return count, nil
}
