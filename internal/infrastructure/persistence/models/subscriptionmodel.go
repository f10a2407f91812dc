package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/subtrack-inc/subtrack/internal/shared/constants"
)

// SubscriptionModel is the database persistence model for subscriptions.
// This is the anti-corruption layer between domain and database.
//
// ActiveTenantSID mirrors TenantSID while the subscription is not canceled
// and is NULL once it is. The unique index on it enforces at most one
// non-canceled subscription per tenant at the storage level, closing the
// check-then-insert race in the application layer.
type SubscriptionModel struct {
	ID              uint      `gorm:"primarykey"`
	SID             string    `gorm:"column:sid;uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	TenantSID       string    `gorm:"column:tenant_sid;not null;size:50;index:idx_tenant_subscription"`
	ActiveTenantSID *string   `gorm:"column:active_tenant_sid;uniqueIndex;size:50"`
	PlanCode        string    `gorm:"not null;size:50;index:idx_plan_subscription"`
	Status          string    `gorm:"not null;size:20;index:idx_status"`
	PeriodStart     time.Time `gorm:"not null"`
	PeriodEnd       time.Time `gorm:"not null;index:idx_period_end"`
	CanceledAt      *time.Time
	Version         int `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
