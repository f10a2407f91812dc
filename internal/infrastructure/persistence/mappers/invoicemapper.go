package mappers

import (
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/domain/invoice"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/shared/mapper"
)

type InvoiceMapper interface {
	ToEntity(model *models.InvoiceModel) (*invoice.Invoice, error)
	ToModel(entity *invoice.Invoice) (*models.InvoiceModel, error)
	ToEntities(models []*models.InvoiceModel) ([]*invoice.Invoice, error)
}

type InvoiceMapperImpl struct{}

func NewInvoiceMapper() InvoiceMapper {
	return &InvoiceMapperImpl{}
}

func (m *InvoiceMapperImpl) ToEntity(model *models.InvoiceModel) (*invoice.Invoice, error) {
	if model == nil {
		return nil, nil
	}

	sourceEventID := ""
	if model.SourceEventID != nil {
		sourceEventID = *model.SourceEventID
	}

	entity, err := invoice.ReconstructInvoice(invoice.InvoiceReconstructParams{
		ID:              model.ID,
		SID:             model.SID,
		TenantSID:       model.TenantSID,
		SubscriptionSID: model.SubscriptionSID,
		PlanCode:        model.PlanCode,
		AmountCents:     model.AmountCents,
		Currency:        model.Currency,
		PeriodStart:     model.PeriodStart,
		PeriodEnd:       model.PeriodEnd,
		Status:          invoice.InvoiceStatus(model.Status),
		SourceEventID:   sourceEventID,
		CreatedAt:       model.CreatedAt,
		PaidAt:          model.PaidAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct invoice entity: %w", err)
	}

	return entity, nil
}

func (m *InvoiceMapperImpl) ToModel(entity *invoice.Invoice) (*models.InvoiceModel, error) {
	if entity == nil {
		return nil, nil
	}

	model := &models.InvoiceModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		TenantSID:       entity.TenantSID(),
		SubscriptionSID: entity.SubscriptionSID(),
		PlanCode:        entity.PlanCode(),
		AmountCents:     entity.AmountCents(),
		Currency:        entity.Currency(),
		Status:          string(entity.Status()),
		PeriodStart:     entity.PeriodStart(),
		PeriodEnd:       entity.PeriodEnd(),
		PaidAt:          entity.PaidAt(),
		CreatedAt:       entity.CreatedAt(),
	}

	// NULL keeps one-off invoices out of the unique source-event index.
	if sourceEventID := entity.SourceEventID(); sourceEventID != "" {
		model.SourceEventID = &sourceEventID
	}

	return model, nil
}

func (m *InvoiceMapperImpl) ToEntities(modelList []*models.InvoiceModel) ([]*invoice.Invoice, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.InvoiceModel) uint { return model.ID })
}
