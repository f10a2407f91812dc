package scheduler

import (
	"context"
	"sync"
	"time"

	billingUsecases "github.com/subtrack-inc/subtrack/internal/application/billing/usecases"
	subscriptionUsecases "github.com/subtrack-inc/subtrack/internal/application/subscription/usecases"
	"github.com/subtrack-inc/subtrack/internal/shared/goroutine"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// SubscriptionScheduler handles periodic subscription maintenance tasks:
// the lifecycle sweep (expiring lapsed trials and actives, canceling
// past-due subscriptions whose grace window ran out) and daily cleanup of
// expired idempotency records.
type SubscriptionScheduler struct {
	expireSubscriptionsUC *subscriptionUsecases.ExpireSubscriptionsUseCase
	purgeIdempotencyUC    *billingUsecases.PurgeIdempotencyRecordsUseCase
	sweepInterval         time.Duration
	logger                logger.Interface
	stopChan              chan struct{}
	stopOnce              sync.Once
	wg                    sync.WaitGroup
}

// NewSubscriptionScheduler creates a new SubscriptionScheduler
func NewSubscriptionScheduler(
	expireSubscriptionsUC *subscriptionUsecases.ExpireSubscriptionsUseCase,
	purgeIdempotencyUC *billingUsecases.PurgeIdempotencyRecordsUseCase,
	sweepIntervalMinutes int,
	logger logger.Interface,
) *SubscriptionScheduler {
	sweepInterval := time.Duration(sweepIntervalMinutes) * time.Minute
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}

	return &SubscriptionScheduler{
		expireSubscriptionsUC: expireSubscriptionsUC,
		purgeIdempotencyUC:    purgeIdempotencyUC,
		sweepInterval:         sweepInterval,
		logger:                logger,
		stopChan:              make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *SubscriptionScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting subscription scheduler", "sweep_interval", s.sweepInterval)

	s.wg.Add(1)
	goroutine.SafeGo(s.logger, "subscription_scheduler", func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	})
}

// Stop stops the scheduler gracefully
func (s *SubscriptionScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping subscription scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("subscription scheduler stopped")
	})
}

func (s *SubscriptionScheduler) runLoop(ctx context.Context) {
	// Run immediately on startup to clear any backlog from downtime.
	s.runSweep(ctx)

	sweepTicker := time.NewTicker(s.sweepInterval)
	defer sweepTicker.Stop()

	purgeTicker := time.NewTicker(24 * time.Hour)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("subscription scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-sweepTicker.C:
			s.runSweep(ctx)
		case <-purgeTicker.C:
			s.runPurge(ctx)
		}
	}
}

func (s *SubscriptionScheduler) runSweep(ctx context.Context) {
	s.logger.Debugw("lifecycle sweep started")

	startTime := time.Now()

	transitioned, err := s.expireSubscriptionsUC.Execute(ctx)
	if err != nil {
		s.logger.Errorw("lifecycle sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if transitioned > 0 {
		s.logger.Infow("lifecycle sweep completed",
			"transitioned", transitioned,
			"duration", time.Since(startTime),
		)
	} else {
		s.logger.Debugw("lifecycle sweep found nothing to do",
			"duration", time.Since(startTime),
		)
	}
}

func (s *SubscriptionScheduler) runPurge(ctx context.Context) {
	if _, err := s.purgeIdempotencyUC.Execute(ctx); err != nil {
		s.logger.Errorw("idempotency record purge failed", "error", err)
	}
}
