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

// CancelSubscriptionUseCase cancels a subscription on behalf of the tenant.
// The underlying transition is idempotent: a retried cancel of an already
// canceled subscription succeeds without effect.
type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	unitOfWork       *uow.UnitOfWork
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	unitOfWork *uow.UnitOfWork,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		unitOfWork:       unitOfWork,
		logger:           logger,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, sid string) error {
	sub, err := uc.subscriptionRepo.GetBySID(ctx, sid)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return apperrors.NewNotFoundError("subscription not found", sid)
	}

	if err := sub.Cancel(); err != nil {
		if errors.Is(err, subscription.ErrInvalidTransition) {
			return apperrors.NewValidationError("subscription cannot be canceled", err.Error())
		}
		return err
	}

	err = uc.unitOfWork.Commit(ctx, func(txCtx context.Context) error {
		return uc.subscriptionRepo.Update(txCtx, sub)
	}, sub)
	if err != nil {
		return err
	}

	uc.logger.Infow("subscription canceled", "subscription_sid", sub.SID(), "tenant_sid", sub.TenantSID())
	return nil
}
