package mappers

import (
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/webhook"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/shared/mapper"
)

type InboxMapper interface {
	ToEntity(model *models.WebhookInboxModel) (*webhook.InboxMessage, error)
	ToModel(entity *webhook.InboxMessage) (*models.WebhookInboxModel, error)
	ToEntities(models []*models.WebhookInboxModel) ([]*webhook.InboxMessage, error)
}

type InboxMapperImpl struct{}

func NewInboxMapper() InboxMapper {
	return &InboxMapperImpl{}
}

func (m *InboxMapperImpl) ToEntity(model *models.WebhookInboxModel) (*webhook.InboxMessage, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := webhook.ReconstructInboxMessage(webhook.InboxMessageReconstructParams{
		ID:              model.ID,
		SID:             model.SID,
		ExternalEventID: model.ExternalEventID,
		EventType:       model.EventType,
		Payload:         model.Payload,
		ReceivedAt:      model.ReceivedAt,
		ProcessedAt:     model.ProcessedAt,
		AttemptCount:    model.AttemptCount,
		NextAttemptAt:   model.NextAttemptAt,
		LastError:       model.LastError,
		DeadLetteredAt:  model.DeadLetteredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct inbox message entity: %w", err)
	}

	return entity, nil
}

func (m *InboxMapperImpl) ToModel(entity *webhook.InboxMessage) (*models.WebhookInboxModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.WebhookInboxModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		ExternalEventID: entity.ExternalEventID(),
		EventType:       entity.EventType(),
		Payload:         entity.Payload(),
		ReceivedAt:      entity.ReceivedAt(),
		ProcessedAt:     entity.ProcessedAt(),
		AttemptCount:    entity.AttemptCount(),
		NextAttemptAt:   entity.NextAttemptAt(),
		LastError:       entity.LastError(),
		DeadLetteredAt:  entity.DeadLetteredAt(),
	}, nil
}

func (m *InboxMapperImpl) ToEntities(modelList []*models.WebhookInboxModel) ([]*webhook.InboxMessage, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.WebhookInboxModel) uint { return model.ID })
}
