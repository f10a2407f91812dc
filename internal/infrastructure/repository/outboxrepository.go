package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

type OutboxRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewOutboxRepository(
	db *gorm.DB,
	logger logger.Interface,
) events.OutboxRepository {
	return &OutboxRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// SaveBatch inserts one row per event. It picks up the caller's transaction
// from the context, so the rows commit or roll back together with the
// aggregate mutation that raised them.
func (r *OutboxRepositoryImpl) SaveBatch(ctx context.Context, batch []events.DomainEvent) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([]*models.OutboxMessageModel, 0, len(batch))
	for _, event := range batch {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.GetEventID(), err)
		}
		rows = append(rows, &models.OutboxMessageModel{
			EventID:      event.GetEventID(),
			EventType:    event.GetEventType(),
			AggregateSID: event.GetAggregateSID(),
			TenantSID:    event.GetTenantSID(),
			Payload:      payload,
			OccurredAt:   event.GetOccurredAt(),
		})
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(rows).Error; err != nil {
		r.logger.Errorw("failed to save outbox batch", "count", len(rows), "error", err)
		return fmt.Errorf("failed to save outbox batch: %w", err)
	}

	return nil
}

func (r *OutboxRepositoryImpl) FindUndispatched(ctx context.Context, limit int) ([]*events.OutboxRecord, error) {
	var modelList []*models.OutboxMessageModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("dispatched_at IS NULL").
		Order("occurred_at ASC").
		Limit(limit).
		Find(&modelList).Error
	if err != nil {
		r.logger.Errorw("failed to find undispatched outbox messages", "error", err)
		return nil, fmt.Errorf("failed to find undispatched outbox messages: %w", err)
	}

	records := make([]*events.OutboxRecord, 0, len(modelList))
	for _, model := range modelList {
		records = append(records, &events.OutboxRecord{
			EventID:      model.EventID,
			EventType:    model.EventType,
			AggregateSID: model.AggregateSID,
			TenantSID:    model.TenantSID,
			Payload:      model.Payload,
			OccurredAt:   model.OccurredAt,
			DispatchedAt: model.DispatchedAt,
		})
	}

	return records, nil
}

func (r *OutboxRepositoryImpl) MarkDispatched(ctx context.Context, eventID string) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.OutboxMessageModel{}).
		Where("event_id = ? AND dispatched_at IS NULL", eventID).
		Update("dispatched_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if result.Error != nil {
		r.logger.Errorw("failed to mark outbox message dispatched", "event_id", eventID, "error", result.Error)
		return fmt.Errorf("failed to mark outbox message dispatched: %w", result.Error)
	}

	return nil
}
