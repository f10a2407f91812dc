package migration

import (
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.SubscriptionModel{},
		&models.InvoiceModel{},
		&models.OutboxMessageModel{},
		&models.ProcessedEventModel{},
		&models.WebhookInboxModel{},
		&models.IdempotencyRecordModel{},
	}
}
