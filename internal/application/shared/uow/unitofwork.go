// Package uow couples persistence commits to event delivery. One commit is
// one storage transaction: the aggregate mutation and the raised events (as
// outbox rows) land together or not at all. Dispatch happens after the
// commit; a crash in between is repaired by the outbox processor replaying
// undispatched rows, with the processed-event guard absorbing duplicates.
package uow

import (
	"context"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

type UnitOfWork struct {
	tm         *db.TransactionManager
	outboxRepo events.OutboxRepository
	dispatcher *events.Dispatcher
	logger     logger.Interface
}

func New(
	tm *db.TransactionManager,
	outboxRepo events.OutboxRepository,
	dispatcher *events.Dispatcher,
	logger logger.Interface,
) *UnitOfWork {
	return &UnitOfWork{
		tm:         tm,
		outboxRepo: outboxRepo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Commit runs work inside one storage transaction, drains the events the
// given sources raised during it, and persists them to the outbox in the
// same transaction. After a successful commit the batch is dispatched
// in-process, in raise order, and each fully handled event is marked
// dispatched.
//
// Any failure inside the transaction rolls everything back; nothing is
// dispatched. A dispatch failure after commit is returned to the caller,
// but the committed state stands and the undispatched outbox rows are
// replayed by the background processor.
func (u *UnitOfWork) Commit(ctx context.Context, work func(ctx context.Context) error, sources ...events.EventSource) error {
	var batch []events.DomainEvent

	err := u.tm.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := work(txCtx); err != nil {
			return err
		}

		for _, src := range sources {
			batch = append(batch, src.PullEvents()...)
		}
		if len(batch) == 0 {
			return nil
		}
		return u.outboxRepo.SaveBatch(txCtx, batch)
	})
	if err != nil {
		return err
	}

	for _, event := range batch {
		if derr := u.dispatcher.Dispatch(ctx, []events.DomainEvent{event}); derr != nil {
			u.logger.Errorw("event dispatch failed after commit, outbox will replay",
				"event_id", event.GetEventID(),
				"event_type", event.GetEventType(),
				"error", derr,
			)
			return derr
		}

		if merr := u.outboxRepo.MarkDispatched(ctx, event.GetEventID()); merr != nil {
			// The handlers ran; replay will be absorbed by the guard.
			u.logger.Warnw("failed to mark outbox record dispatched",
				"event_id", event.GetEventID(),
				"error", merr,
			)
		}
	}

	return nil
}
