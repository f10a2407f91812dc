// Package worker implements the `worker` CLI command: the webhook inbox
// drain, outbox replay, and lifecycle sweep without an HTTP listener.
// Deploy it next to API instances started with --no-workers.
package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/subtrack-inc/subtrack/internal/application/billing"
	billingHandlers "github.com/subtrack-inc/subtrack/internal/application/billing/handlers"
	billingUsecases "github.com/subtrack-inc/subtrack/internal/application/billing/usecases"
	"github.com/subtrack-inc/subtrack/internal/application/shared/uow"
	subscriptionUsecases "github.com/subtrack-inc/subtrack/internal/application/subscription/usecases"
	webhookUsecases "github.com/subtrack-inc/subtrack/internal/application/webhook/usecases"
	"github.com/subtrack-inc/subtrack/internal/domain/shared/events"
	"github.com/subtrack-inc/subtrack/internal/domain/subscription"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/cache"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/config"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/database"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/email"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/repository"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/scheduler"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the background workers without the HTTP server",
		Long:  `Start the webhook worker, outbox processor, and subscription lifecycle scheduler as a standalone process.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()
	log.Infow("starting billing worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	gormDB := database.Get()
	tm := db.NewTransactionManager(gormDB)

	subscriptionRepo := repository.NewSubscriptionRepository(gormDB, log)
	invoiceRepo := repository.NewInvoiceRepository(gormDB, log)
	inboxRepo := repository.NewInboxRepository(gormDB, log)
	outboxRepo := repository.NewOutboxRepository(gormDB, log)
	processedEvents := repository.NewProcessedEventRepository(gormDB, log)
	idempotencyRepo := repository.NewIdempotencyRepository(gormDB, log)

	var notifier billingHandlers.Notifier
	if cfg.Email.Enabled {
		notifier = email.NewSMTPNotifier(&cfg.Email, log)
	} else {
		notifier = email.NewNoopNotifier(log)
	}

	dispatcher := events.NewDispatcher()
	invoiceHandler := billingHandlers.NewInvoiceHandler(
		processedEvents, invoiceRepo, subscriptionRepo, billing.DefaultPlanCatalog(), log)
	notificationHandler := billingHandlers.NewNotificationHandler(processedEvents, notifier, log)

	dispatcher.MustRegister(subscription.EventTypeActivated, invoiceHandler)
	dispatcher.MustRegister(subscription.EventTypePeriodAdvanced, invoiceHandler)
	dispatcher.MustRegister(subscription.EventTypeExpired, notificationHandler)
	dispatcher.MustRegister(subscription.EventTypeCanceledForNonPayment, notificationHandler)

	unitOfWork := uow.New(tm, outboxRepo, dispatcher, log)

	processInboundUC := webhookUsecases.NewProcessInboundEventUseCase(subscriptionRepo, unitOfWork, log)
	expireUC := subscriptionUsecases.NewExpireSubscriptionsUseCase(subscriptionRepo, unitOfWork, log)
	purgeUC := billingUsecases.NewPurgeIdempotencyRecordsUseCase(idempotencyRepo, cfg.Billing.IdempotencyRetentionDays, log)

	workerLock := cache.NewWorkerLock(redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	webhookWorker := scheduler.NewWebhookWorker(inboxRepo, processInboundUC, workerLock, &cfg.Webhook, log)
	outboxProcessor := scheduler.NewOutboxProcessor(outboxRepo, dispatcher, cfg.Billing.OutboxIntervalSeconds, log)
	subscriptionScheduler := scheduler.NewSubscriptionScheduler(expireUC, purgeUC, cfg.Billing.SweepIntervalMinutes, log)

	webhookWorker.Start(ctx)
	outboxProcessor.Start(ctx)
	subscriptionScheduler.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Infow("shutting down billing worker")

	webhookWorker.Stop()
	outboxProcessor.Stop()
	subscriptionScheduler.Stop()
	cancel()

	log.Infow("billing worker exited gracefully")
	return nil
}
