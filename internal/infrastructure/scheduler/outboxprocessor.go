package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/shared/goroutine"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

const outboxBatchSize = 50

// OutboxProcessor replays committed events whose dispatch never finished,
// typically after a crash between transaction commit and handler
// completion. Handlers deduplicate through the processed-event guard, so
// replaying an already-handled event is harmless.
type OutboxProcessor struct {
	outboxRepo events.OutboxRepository
	dispatcher *events.Dispatcher
	interval   time.Duration
	logger     logger.Interface
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewOutboxProcessor(
	outboxRepo events.OutboxRepository,
	dispatcher *events.Dispatcher,
	intervalSeconds int,
	logger logger.Interface,
) *OutboxProcessor {
	interval := time.Duration(intervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &OutboxProcessor{
		outboxRepo: outboxRepo,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start starts the replay loop
func (p *OutboxProcessor) Start(ctx context.Context) {
	p.logger.Infow("starting outbox processor", "interval", p.interval)

	p.wg.Add(1)
	goroutine.SafeGo(p.logger, "outbox_processor", func() {
		defer p.wg.Done()
		p.runLoop(ctx)
	})
}

// Stop stops the replay loop gracefully
func (p *OutboxProcessor) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Infow("stopping outbox processor")
		close(p.stopChan)
		p.wg.Wait()
		p.logger.Infow("outbox processor stopped")
	})
}

func (p *OutboxProcessor) runLoop(ctx context.Context) {
	p.replayUndispatched(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Infow("outbox processor stopped due to context cancellation")
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.replayUndispatched(ctx)
		}
	}
}

func (p *OutboxProcessor) replayUndispatched(ctx context.Context) {
	records, err := p.outboxRepo.FindUndispatched(ctx, outboxBatchSize)
	if err != nil {
		p.logger.Errorw("failed to load undispatched outbox messages", "error", err)
		return
	}
	if len(records) == 0 {
		return
	}

	p.logger.Infow("replaying undispatched events", "count", len(records))

	for _, record := range records {
		if ctx.Err() != nil {
			return
		}

		event := record.Rehydrate()
		if err := p.dispatcher.Dispatch(ctx, []events.DomainEvent{event}); err != nil {
			// Leave the row undispatched; the next round retries it.
			p.logger.Warnw("outbox replay failed",
				"event_id", record.EventID,
				"event_type", record.EventType,
				"error", err,
			)
			continue
		}

		if err := p.outboxRepo.MarkDispatched(ctx, record.EventID); err != nil {
			// Handlers are idempotent, so a re-replay after this failure is
			// absorbed by the processed-event guard.
			p.logger.Warnw("failed to mark outbox message dispatched",
				"event_id", record.EventID,
				"error", err,
			)
		}
	}
}
