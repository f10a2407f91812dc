package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/repository"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

type replayHandler struct {
	eventIDs []string
	fail     error
}

func (h *replayHandler) Name() string { return "test.replay" }

func (h *replayHandler) Handle(_ context.Context, event events.DomainEvent) error {
	if h.fail != nil {
		return h.fail
	}
	h.eventIDs = append(h.eventIDs, event.GetEventID())
	return nil
}

func setupProcessor(t *testing.T) (*OutboxProcessor, events.OutboxRepository, *replayHandler) {
	t.Helper()

	database := setupSchedulerDB(t)
	log := logger.NewLogger()
	outboxRepo := repository.NewOutboxRepository(database, log)

	handler := &replayHandler{}
	dispatcher := events.NewDispatcher()
	dispatcher.MustRegister(subscription.EventTypeActivated, handler)

	return NewOutboxProcessor(outboxRepo, dispatcher, 10, log), outboxRepo, handler
}

func TestOutboxProcessor_ReplaysUndispatchedEvents(t *testing.T) {
	processor, outboxRepo, handler := setupProcessor(t)
	ctx := context.Background()

	event := subscription.NewSubscriptionActivatedEvent("sub_abc123", "org_tenant01", "starter", time.Now())
	require.NoError(t, outboxRepo.SaveBatch(ctx, []events.DomainEvent{event}))

	processor.replayUndispatched(ctx)

	assert.Equal(t, []string{event.GetEventID()}, handler.eventIDs)

	undispatched, err := outboxRepo.FindUndispatched(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, undispatched)
}

func TestOutboxProcessor_FailedReplayStaysQueued(t *testing.T) {
	processor, outboxRepo, handler := setupProcessor(t)
	ctx := context.Background()
	handler.fail = assert.AnError

	event := subscription.NewSubscriptionActivatedEvent("sub_abc123", "org_tenant01", "starter", time.Now())
	require.NoError(t, outboxRepo.SaveBatch(ctx, []events.DomainEvent{event}))

	processor.replayUndispatched(ctx)

	undispatched, err := outboxRepo.FindUndispatched(ctx, 10)
	require.NoError(t, err)
	require.Len(t, undispatched, 1, "the row waits for the next round")

	// The handler recovers and the next round drains it.
	handler.fail = nil
	processor.replayUndispatched(ctx)

	undispatched, err = outboxRepo.FindUndispatched(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, undispatched)
	assert.Equal(t, []string{event.GetEventID()}, handler.eventIDs)
}

func TestOutboxProcessor_EmptyOutboxIsQuiet(t *testing.T) {
	processor, _, handler := setupProcessor(t)

	processor.replayUndispatched(context.Background())
	assert.Empty(t, handler.eventIDs)
}
