package scheduler

import (
	"context"
	"sync"
	"time"

	webhookUsecases "github.com/subtrack-inc/subtrack/internal/application/webhook/usecases"
	"github.com/subtrack-inc/subtrack/internal/domain/webhook"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/cache"
	"github.com/subtrack-inc/subtrack/internal/shared/biztime"
	"github.com/subtrack-inc/subtrack/internal/shared/config"
	"github.com/subtrack-inc/subtrack/internal/shared/goroutine"
	"github.com/subtrack-inc/subtrack/internal/shared/id"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

const webhookWorkerLockName = "webhook_inbox"

// workerLease is the subset of cache.WorkerLock the worker depends on.
type workerLease interface {
	TryAcquire(ctx context.Context, name, holderID string, ttl time.Duration) (bool, error)
	Extend(ctx context.Context, name, holderID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, holderID string) error
}

// WebhookWorker drains the webhook inbox: it claims a batch of eligible
// messages on every poll and runs each through the provider event processor.
// Failures are isolated per message; one poisoned payload delays only itself.
//
// A Redis lease keeps concurrent instances from processing the same batch.
// When the lease is unavailable the instance sits out the round.
type WebhookWorker struct {
	inboxRepo    webhook.InboxRepository
	processUC    *webhookUsecases.ProcessInboundEventUseCase
	lock         workerLease
	holderID     string
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	logger       logger.Interface
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewWebhookWorker(
	inboxRepo webhook.InboxRepository,
	processUC *webhookUsecases.ProcessInboundEventUseCase,
	lock *cache.WorkerLock,
	cfg *config.WebhookConfig,
	logger logger.Interface,
) *WebhookWorker {
	pollInterval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 25
	}

	// A typed nil pointer must not survive the interface conversion, or the
	// nil checks in processBatch would pass and then panic.
	var lease workerLease
	if lock != nil {
		lease = lock
	}

	return &WebhookWorker{
		inboxRepo:    inboxRepo,
		processUC:    processUC,
		lock:         lease,
		holderID:     id.MustGenerate(id.DefaultLength),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxAttempts:  cfg.MaxAttempts,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start starts the worker loop
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Infow("starting webhook worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	w.wg.Add(1)
	goroutine.SafeGo(w.logger, "webhook_worker", func() {
		defer w.wg.Done()
		w.runLoop(ctx)
	})
}

// Stop stops the worker gracefully
func (w *WebhookWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Infow("stopping webhook worker")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Infow("webhook worker stopped")
	})
}

func (w *WebhookWorker) runLoop(ctx context.Context) {
	// Drain whatever accumulated while the worker was down.
	w.processBatch(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infow("webhook worker stopped due to context cancellation")
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *WebhookWorker) processBatch(ctx context.Context) {
	if w.lock != nil {
		acquired, err := w.lock.TryAcquire(ctx, webhookWorkerLockName, w.holderID, 2*w.pollInterval)
		if err != nil {
			w.logger.Warnw("failed to acquire webhook worker lease", "error", err)
			return
		}
		if !acquired {
			w.logger.Debugw("webhook worker lease held elsewhere, skipping round")
			return
		}
		defer func() {
			if err := w.lock.Release(context.WithoutCancel(ctx), webhookWorkerLockName, w.holderID); err != nil {
				w.logger.Warnw("failed to release webhook worker lease", "error", err)
			}
		}()
	}

	now := biztime.NowUTC()
	batch, err := w.inboxRepo.ClaimBatch(ctx, w.batchSize, now)
	if err != nil {
		w.logger.Errorw("failed to claim webhook inbox batch", "error", err)
		return
	}
	if len(batch) == 0 {
		return
	}

	w.logger.Debugw("processing webhook inbox batch", "count", len(batch))

	processed := 0
	failed := 0
	for i, msg := range batch {
		// Stop between items on shutdown; the unstarted remainder keeps its
		// attempt count and is picked up by the next poll.
		if ctx.Err() != nil {
			w.logger.Infow("webhook batch interrupted by shutdown",
				"processed", processed,
				"remaining", len(batch)-processed-failed,
			)
			return
		}

		// A slow batch can outrun the lease TTL. Refresh it between items
		// and yield the rest of the batch when another holder took over.
		if w.lock != nil && i > 0 {
			held, err := w.lock.Extend(ctx, webhookWorkerLockName, w.holderID, 2*w.pollInterval)
			if err != nil {
				w.logger.Warnw("failed to extend webhook worker lease", "error", err)
			} else if !held {
				w.logger.Warnw("webhook worker lease lost mid-batch",
					"processed", processed,
					"remaining", len(batch)-processed-failed,
				)
				return
			}
		}

		if w.processOne(ctx, msg) {
			processed++
		} else {
			failed++
		}
	}

	if failed > 0 {
		w.logger.Infow("webhook inbox batch done",
			"processed", processed,
			"failed", failed,
		)
	}
}

// processOne runs the provider event processor for a single message and
// persists the resulting state. Returns true on success.
func (w *WebhookWorker) processOne(ctx context.Context, msg *webhook.InboxMessage) bool {
	procErr := w.processUC.Execute(ctx, msg)

	now := biztime.NowUTC()
	if procErr == nil {
		if err := msg.MarkProcessed(now); err != nil {
			w.logger.Errorw("failed to mark inbox message processed",
				"inbox_sid", msg.SID(), "error", err)
			return false
		}
	} else {
		w.logger.Warnw("webhook event processing failed",
			"inbox_sid", msg.SID(),
			"external_event_id", msg.ExternalEventID(),
			"event_type", msg.EventType(),
			"attempt", msg.AttemptCount()+1,
			"error", procErr,
		)
		if err := msg.MarkFailed(procErr, now, w.maxAttempts); err != nil {
			w.logger.Errorw("failed to mark inbox message failed",
				"inbox_sid", msg.SID(), "error", err)
			return false
		}
		if msg.IsDeadLettered() {
			w.logger.Errorw("webhook event dead-lettered",
				"inbox_sid", msg.SID(),
				"external_event_id", msg.ExternalEventID(),
				"attempts", msg.AttemptCount(),
			)
		}
	}

	if err := w.inboxRepo.Update(ctx, msg); err != nil {
		w.logger.Errorw("failed to persist inbox message state",
			"inbox_sid", msg.SID(), "error", err)
		return false
	}

	return procErr == nil
}
