package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/subtrack-inc/subtrack/internal/shared/constants"
)

// OutboxMessageModel persists domain events in the same transaction as the
// state change that raised them. Undispatched rows (DispatchedAt NULL) are
// replayed by the outbox processor until dispatch succeeds.
type OutboxMessageModel struct {
	ID           uint      `gorm:"primarykey"`
	EventID      string    `gorm:"uniqueIndex;not null;size:50"`
	EventType    string    `gorm:"not null;size:100;index:idx_outbox_event_type"`
	AggregateSID string    `gorm:"column:aggregate_sid;not null;size:50;index:idx_outbox_aggregate"`
	TenantSID    string    `gorm:"column:tenant_sid;not null;size:50"`
	Payload      datatypes.JSON
	OccurredAt   time.Time `gorm:"not null"`
	DispatchedAt *time.Time `gorm:"index:idx_outbox_dispatched"`
	CreatedAt    time.Time
}

// TableName specifies the table name for GORM
func (OutboxMessageModel) TableName() string {
	return constants.TableOutboxMessages
}
