package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/subtrack-inc/subtrack/internal/application/shared/uow"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	apperrors "github.com/subtrack-inc/subtrack/internal/shared/errors"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// UpgradePlanCommand carries the request data.
type UpgradePlanCommand struct {
	SubscriptionSID string
	NewPlanCode     string
}

// UpgradePlanUseCase switches a subscription to a different plan. The
// billing period is untouched; the new price applies from the next renewal.
type UpgradePlanUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	unitOfWork       *uow.UnitOfWork
	logger           logger.Interface
}

func NewUpgradePlanUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	unitOfWork *uow.UnitOfWork,
	logger logger.Interface,
) *UpgradePlanUseCase {
	return &UpgradePlanUseCase{
		subscriptionRepo: subscriptionRepo,
		unitOfWork:       unitOfWork,
		logger:           logger,
	}
}

func (uc *UpgradePlanUseCase) Execute(ctx context.Context, cmd UpgradePlanCommand) error {
	sub, err := uc.subscriptionRepo.GetBySID(ctx, cmd.SubscriptionSID)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return apperrors.NewNotFoundError("subscription not found", cmd.SubscriptionSID)
	}

	if err := sub.UpgradePlan(cmd.NewPlanCode); err != nil {
		if errors.Is(err, subscription.ErrInvalidTransition) {
			return apperrors.NewValidationError("plan cannot be changed", err.Error())
		}
		return apperrors.NewValidationError("invalid plan change", err.Error())
	}

	err = uc.unitOfWork.Commit(ctx, func(txCtx context.Context) error {
		return uc.subscriptionRepo.Update(txCtx, sub)
	}, sub)
	if err != nil {
		return err
	}

	uc.logger.Infow("subscription plan changed",
		"subscription_sid", sub.SID(),
		"plan_code", sub.PlanCode(),
	)
	return nil
}
