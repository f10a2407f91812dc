package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/subtrack-inc/subtrack/internal/domain/invoice"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/mappers"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

type InvoiceRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.InvoiceMapper
	logger logger.Interface
}

func NewInvoiceRepository(
	db *gorm.DB,
	logger logger.Interface,
) invoice.InvoiceRepository {
	return &InvoiceRepositoryImpl{
		db:     db,
		mapper: mappers.NewInvoiceMapper(),
		logger: logger,
	}
}

// Create inserts the invoice. Duplicate-key errors pass through unwrapped so
// callers can recognize a source-event collision and treat it as idempotent
// success.
func (r *InvoiceRepositoryImpl) Create(ctx context.Context, invoiceEntity *invoice.Invoice) error {
	model, err := r.mapper.ToModel(invoiceEntity)
	if err != nil {
		r.logger.Errorw("failed to map invoice entity to model", "error", err)
		return fmt.Errorf("failed to map invoice entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return err
	}

	if err := invoiceEntity.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set invoice ID: %w", err)
	}

	return nil
}

func (r *InvoiceRepositoryImpl) GetBySID(ctx context.Context, sid string) (*invoice.Invoice, error) {
	var model models.InvoiceModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get invoice by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *InvoiceRepositoryImpl) GetBySubscriptionAndPeriod(ctx context.Context, subscriptionSID string, periodStart time.Time) (*invoice.Invoice, error) {
	var model models.InvoiceModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("subscription_sid = ? AND period_start = ?", subscriptionSID, periodStart).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get invoice by subscription and period",
			"subscription_sid", subscriptionSID, "error", err)
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *InvoiceRepositoryImpl) ListByTenant(ctx context.Context, tenantSID string, page, pageSize int) ([]*invoice.Invoice, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Model(&models.InvoiceModel{}).Where("tenant_sid = ?", tenantSID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Errorw("failed to count invoices by tenant", "tenant_sid", tenantSID, "error", err)
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	var modelList []*models.InvoiceModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&modelList).Error
	if err != nil {
		r.logger.Errorw("failed to list invoices by tenant", "tenant_sid", tenantSID, "error", err)
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	entities, err := r.mapper.ToEntities(modelList)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to map invoices: %w", err)
	}

	return entities, total, nil
}

func (r *InvoiceRepositoryImpl) Update(ctx context.Context, invoiceEntity *invoice.Invoice) error {
	model, err := r.mapper.ToModel(invoiceEntity)
	if err != nil {
		return fmt.Errorf("failed to map invoice entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.InvoiceModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":  model.Status,
			"paid_at": model.PaidAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update invoice", "sid", model.SID, "error", result.Error)
		return fmt.Errorf("failed to update invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("invoice %s not found", model.SID)
	}

	return nil
}
