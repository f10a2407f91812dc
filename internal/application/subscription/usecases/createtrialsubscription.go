package usecases

import (
	"context"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/application/shared/uow"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/shared/biztime"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// CreateTrialSubscriptionCommand carries the request data.
type CreateTrialSubscriptionCommand struct {
	TenantSID string
	PlanCode  string
}

// CreateTrialSubscriptionUseCase starts a 14-day trial for a tenant.
// A tenant can hold at most one non-canceled subscription at a time.
type CreateTrialSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	unitOfWork       *uow.UnitOfWork
	logger           logger.Interface
}

func NewCreateTrialSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	unitOfWork *uow.UnitOfWork,
	logger logger.Interface,
) *CreateTrialSubscriptionUseCase {
	return &CreateTrialSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		unitOfWork:       unitOfWork,
		logger:           logger,
	}
}

func (uc *CreateTrialSubscriptionUseCase) Execute(ctx context.Context, cmd CreateTrialSubscriptionCommand) (*subscription.Subscription, error) {
	existing, err := uc.subscriptionRepo.GetNonCanceledByTenant(ctx, cmd.TenantSID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("tenant already has a subscription", existing.SID())
	}

	sub, err := subscription.NewTrialSubscription(cmd.TenantSID, cmd.PlanCode, biztime.NowUTC())
	if err != nil {
		return nil, apperrors.NewValidationError("invalid trial subscription", err.Error())
	}

	err = uc.unitOfWork.Commit(ctx, func(txCtx context.Context) error {
		return uc.subscriptionRepo.Create(txCtx, sub)
	}, sub)
	if err != nil {
		// The unique tenant index closes the check-then-create race.
		if apperrors.IsDuplicateError(err) {
			return nil, apperrors.NewConflictError("tenant already has a subscription")
		}
		return nil, err
	}

	uc.logger.Infow("trial subscription created",
		"subscription_sid", sub.SID(),
		"tenant_sid", sub.TenantSID(),
		"plan_code", sub.PlanCode(),
	)

	return sub, nil
}
