package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/subtrack-inc/subtrack/internal/shared/constants"
)

// WebhookInboxModel stages inbound provider events. The unique index on
// ExternalEventID deduplicates provider re-deliveries at insert time.
type WebhookInboxModel struct {
	ID              uint      `gorm:"primarykey"`
	SID             string    `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: iwh_xxx"`
	ExternalEventID string    `gorm:"uniqueIndex;not null;size:100"`
	EventType       string    `gorm:"not null;size:100;index:idx_inbox_event_type"`
	Payload         datatypes.JSON
	ReceivedAt      time.Time  `gorm:"not null"`
	ProcessedAt     *time.Time `gorm:"index:idx_inbox_processed"`
	AttemptCount    int        `gorm:"not null;default:0"`
	NextAttemptAt   *time.Time `gorm:"index:idx_inbox_next_attempt"`
	LastError       *string    `gorm:"size:500"`
	DeadLetteredAt  *time.Time `gorm:"index:idx_inbox_dead_lettered"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (WebhookInboxModel) TableName() string {
	return constants.TableWebhookInbox
}
