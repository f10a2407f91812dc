package models

import (
	"time"

	"github.com/subtrack-inc/subtrack/internal/shared/constants"
)

// ProcessedEventModel records that a handler finished a domain event. The
// composite unique index is the exactly-once guard: a replayed event finds
// its marker and skips the handler's side effect.
type ProcessedEventModel struct {
	ID          uint      `gorm:"primarykey"`
	EventID     string    `gorm:"not null;size:50;uniqueIndex:idx_event_handler,priority:1"`
	HandlerName string    `gorm:"not null;size:100;uniqueIndex:idx_event_handler,priority:2"`
	ProcessedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (ProcessedEventModel) TableName() string {
	return constants.TableProcessedEvents
}
