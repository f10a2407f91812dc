package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/subtrack-inc/subtrack/internal/application/shared/uow"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/shared/biztime"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// NonPaymentGrace is how long a past-due subscription may linger beyond its
// period end before the sweep cancels it for nonpayment.
const NonPaymentGrace = 7 * 24 * time.Hour

// ExpireSubscriptionsUseCase is the lifecycle sweep run by the background
// scheduler. It expires trial/active subscriptions whose period has ended
// and cancels past-due subscriptions that outlived the grace window.
// Each subscription commits in its own unit of work, so one stale-version
// conflict never blocks the rest of the sweep.
type ExpireSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	unitOfWork       *uow.UnitOfWork
	logger           logger.Interface
}

func NewExpireSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	unitOfWork *uow.UnitOfWork,
	logger logger.Interface,
) *ExpireSubscriptionsUseCase {
	return &ExpireSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		unitOfWork:       unitOfWork,
		logger:           logger,
	}
}

// Execute returns the number of subscriptions transitioned.
func (uc *ExpireSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	now := biztime.NowUTC()
	transitioned := 0

	dueSubs, err := uc.subscriptionRepo.FindDueForExpiry(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find subscriptions due for expiry: %w", err)
	}

	for _, sub := range dueSubs {
		if err := sub.Expire(now); err != nil {
			uc.logger.Warnw("failed to expire subscription",
				"subscription_sid", sub.SID(),
				"status", sub.Status().String(),
				"error", err,
			)
			continue
		}

		if err := uc.commitOne(ctx, sub); err != nil {
			uc.logger.Errorw("failed to persist expired subscription",
				"subscription_sid", sub.SID(),
				"error", err,
			)
			continue
		}
		transitioned++
	}

	lapsed, err := uc.subscriptionRepo.FindPastDueOlderThan(ctx, now.Add(-NonPaymentGrace))
	if err != nil {
		return transitioned, fmt.Errorf("failed to find lapsed past-due subscriptions: %w", err)
	}

	for _, sub := range lapsed {
		if err := sub.CancelForNonPayment(); err != nil {
			uc.logger.Warnw("failed to cancel subscription for nonpayment",
				"subscription_sid", sub.SID(),
				"status", sub.Status().String(),
				"error", err,
			)
			continue
		}

		if err := uc.commitOne(ctx, sub); err != nil {
			uc.logger.Errorw("failed to persist nonpayment cancellation",
				"subscription_sid", sub.SID(),
				"error", err,
			)
			continue
		}
		transitioned++
	}

	return transitioned, nil
}

func (uc *ExpireSubscriptionsUseCase) commitOne(ctx context.Context, sub *subscription.Subscription) error {
	return uc.unitOfWork.Commit(ctx, func(txCtx context.Context) error {
		return uc.subscriptionRepo.Update(txCtx, sub)
	}, sub)
}
