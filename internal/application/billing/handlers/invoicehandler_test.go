package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/subtrack-inc/subtrack/internal/application/billing"
	"github.com/subtrack-inc/subtrack/internal/domain/invoice"
	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/persistence/models"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/repository"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

type handlerHarness struct {
	invoiceHandler *InvoiceHandler
	processed      events.ProcessedEventStore
	invoiceRepo    invoice.InvoiceRepository
	subRepo        subscription.SubscriptionRepository
}

func setupInvoiceHandler(t *testing.T) *handlerHarness {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.SubscriptionModel{},
		&models.InvoiceModel{},
		&models.ProcessedEventModel{},
	))

	log := logger.NewLogger()
	processed := repository.NewProcessedEventRepository(database, log)
	invoiceRepo := repository.NewInvoiceRepository(database, log)
	subRepo := repository.NewSubscriptionRepository(database, log)

	return &handlerHarness{
		invoiceHandler: NewInvoiceHandler(processed, invoiceRepo, subRepo, billing.DefaultPlanCatalog(), log),
		processed:      processed,
		invoiceRepo:    invoiceRepo,
		subRepo:        subRepo,
	}
}

func seedActiveSubscription(t *testing.T, repo subscription.SubscriptionRepository, planCode string) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.NewTrialSubscription("org_tenant01", planCode, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), sub))
	require.NoError(t, sub.Activate(time.Now()))
	sub.PullEvents()
	require.NoError(t, repo.Update(context.Background(), sub))
	return sub
}

func TestInvoiceHandler_CreatesInvoiceForActivation(t *testing.T) {
	h := setupInvoiceHandler(t)
	ctx := context.Background()

	sub := seedActiveSubscription(t, h.subRepo, "growth")
	event := subscription.NewSubscriptionActivatedEvent(sub.SID(), sub.TenantSID(), sub.PlanCode(), time.Now())

	require.NoError(t, h.invoiceHandler.Handle(ctx, event))

	invoices, total, err := h.invoiceRepo.ListByTenant(ctx, sub.TenantSID(), 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.EqualValues(t, 2900, invoices[0].AmountCents(), "the price comes from the committed plan, not the event")
	assert.Equal(t, "USD", invoices[0].Currency())
	assert.Equal(t, event.GetEventID(), invoices[0].SourceEventID())
	assert.WithinDuration(t, sub.PeriodStart(), invoices[0].PeriodStart(), time.Second)

	done, err := h.processed.Exists(ctx, event.GetEventID(), InvoiceHandlerName)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestInvoiceHandler_ReplayIsSkipped(t *testing.T) {
	h := setupInvoiceHandler(t)
	ctx := context.Background()

	sub := seedActiveSubscription(t, h.subRepo, "starter")
	event := subscription.NewSubscriptionActivatedEvent(sub.SID(), sub.TenantSID(), sub.PlanCode(), time.Now())

	require.NoError(t, h.invoiceHandler.Handle(ctx, event))
	require.NoError(t, h.invoiceHandler.Handle(ctx, event), "outbox replay must be absorbed")

	_, total, err := h.invoiceRepo.ListByTenant(ctx, sub.TenantSID(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestInvoiceHandler_RecoversFromCrashBeforeMarker(t *testing.T) {
	h := setupInvoiceHandler(t)
	ctx := context.Background()

	sub := seedActiveSubscription(t, h.subRepo, "starter")
	event := subscription.NewSubscriptionActivatedEvent(sub.SID(), sub.TenantSID(), sub.PlanCode(), time.Now())

	// Simulate a crash after the invoice write but before the marker: the
	// invoice row exists, the marker does not.
	orphan, err := invoice.NewInvoice(sub.TenantSID(), sub.SID(), sub.PlanCode(), 900, "USD",
		sub.PeriodStart(), sub.PeriodEnd(), event.GetEventID())
	require.NoError(t, err)
	require.NoError(t, h.invoiceRepo.Create(ctx, orphan))

	require.NoError(t, h.invoiceHandler.Handle(ctx, event), "the unique index hit is completion, not failure")

	_, total, err := h.invoiceRepo.ListByTenant(ctx, sub.TenantSID(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	done, err := h.processed.Exists(ctx, event.GetEventID(), InvoiceHandlerName)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestInvoiceHandler_UnknownPlanFails(t *testing.T) {
	h := setupInvoiceHandler(t)
	ctx := context.Background()

	sub := seedActiveSubscription(t, h.subRepo, "starter")
	require.NoError(t, sub.UpgradePlan("legacy-plan"))
	require.NoError(t, h.subRepo.Update(ctx, sub))

	event := subscription.NewSubscriptionActivatedEvent(sub.SID(), sub.TenantSID(), sub.PlanCode(), time.Now())

	err := h.invoiceHandler.Handle(ctx, event)
	require.Error(t, err)

	done, markerErr := h.processed.Exists(ctx, event.GetEventID(), InvoiceHandlerName)
	require.NoError(t, markerErr)
	assert.False(t, done, "a failed attempt stays retryable")
}

func TestInvoiceHandler_MissingSubscriptionFails(t *testing.T) {
	h := setupInvoiceHandler(t)

	event := subscription.NewSubscriptionActivatedEvent("sub_missing00000", "org_tenant01", "starter", time.Now())
	err := h.invoiceHandler.Handle(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
