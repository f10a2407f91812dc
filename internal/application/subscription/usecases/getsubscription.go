package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// SubscriptionDTO is the API view of a subscription.
type SubscriptionDTO struct {
	SID         string     `json:"sid"`
	TenantSID   string     `json:"tenant_sid"`
	PlanCode    string     `json:"plan_code"`
	Status      string     `json:"status"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toSubscriptionDTO(sub *subscription.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		SID:         sub.SID(),
		TenantSID:   sub.TenantSID(),
		PlanCode:    sub.PlanCode(),
		Status:      sub.Status().String(),
		PeriodStart: sub.PeriodStart(),
		PeriodEnd:   sub.PeriodEnd(),
		CanceledAt:  sub.CanceledAt(),
		CreatedAt:   sub.CreatedAt(),
		UpdatedAt:   sub.UpdatedAt(),
	}
}

type GetSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	logger           logger.Interface
}

func NewGetSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	logger logger.Interface,
) *GetSubscriptionUseCase {
	return &GetSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

func (uc *GetSubscriptionUseCase) Execute(ctx context.Context, sid string) (*SubscriptionDTO, error) {
	sub, err := uc.subscriptionRepo.GetBySID(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription", sid)
	}

	dto := toSubscriptionDTO(sub)
	return &dto, nil
}
