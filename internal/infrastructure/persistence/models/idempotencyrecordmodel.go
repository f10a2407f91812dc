package models

import (
	"time"

	"github.com/subtrack-inc/subtrack/internal/shared/constants"
)

// IdempotencyRecordModel pins a client request key to its first outcome.
// The composite unique index makes concurrent retries collide at insert
// time so exactly one of them creates the resource.
type IdempotencyRecordModel struct {
	ID             uint      `gorm:"primarykey"`
	TenantSID      string    `gorm:"column:tenant_sid;not null;size:50;uniqueIndex:idx_tenant_op_key,priority:1"`
	Operation      string    `gorm:"not null;size:100;uniqueIndex:idx_tenant_op_key,priority:2"`
	IdempotencyKey string    `gorm:"not null;size:100;uniqueIndex:idx_tenant_op_key,priority:3"`
	RequestHash    string    `gorm:"not null;size:64"`
	ResourceSID    string    `gorm:"column:resource_sid;not null;size:50"`
	CreatedAt      time.Time `gorm:"index:idx_idempotency_created"`
}

// TableName specifies the table name for GORM
func (IdempotencyRecordModel) TableName() string {
	return constants.TableIdempotencyRecords
}
