// Package server implements the `server` CLI command: the HTTP API plus
// the background workers that drive the billing pipeline.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
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
	"github.com/subtrack-inc/subtrack/internal/infrastructure/migration"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/repository"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/scheduler"
	httpRouter "github.com/subtrack-inc/subtrack/internal/interfaces/http"
	"github.com/subtrack-inc/subtrack/internal/shared/db"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
	noWorkers   bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server and background workers",
		Long:  `Start the Subtrack HTTP server with the webhook worker, outbox processor, and lifecycle scheduler.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&noWorkers, "no-workers", false, "Serve the API without starting background workers")

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
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()
	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration is enabled in production environment")
		}
		manager := migration.NewManager(env)
		if err := manager.Migrate(database.Get(), migration.AutoMigrateModels()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("auto-migration completed")
	}

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
	purgeUC := billingUsecases.NewPurgeIdempotencyRecordsUseCase(idempotencyRepo, cfg.Billing.IdempotencyRetentionDays, log)

	deps := &httpRouter.Dependencies{
		CreateTrialSubscriptionUC: subscriptionUsecases.NewCreateTrialSubscriptionUseCase(subscriptionRepo, unitOfWork, log),
		GetSubscriptionUC:         subscriptionUsecases.NewGetSubscriptionUseCase(subscriptionRepo, log),
		ListSubscriptionsUC:       subscriptionUsecases.NewListSubscriptionsUseCase(subscriptionRepo, log),
		CancelSubscriptionUC:      subscriptionUsecases.NewCancelSubscriptionUseCase(subscriptionRepo, unitOfWork, log),
		UpgradePlanUC:             subscriptionUsecases.NewUpgradePlanUseCase(subscriptionRepo, unitOfWork, log),
		CreateInvoiceUC:           billingUsecases.NewCreateInvoiceUseCase(invoiceRepo, idempotencyRepo, tm, log),
		ListInvoicesUC:            billingUsecases.NewListInvoicesUseCase(invoiceRepo, log),
		PurgeIdempotencyUC:        purgeUC,
		EnqueueInboundEventUC:     webhookUsecases.NewEnqueueInboundEventUseCase(inboxRepo, log),
		ListDeadLettersUC:         webhookUsecases.NewListDeadLettersUseCase(inboxRepo, log),
		ReviveDeadLetterUC:        webhookUsecases.NewReviveDeadLetterUseCase(inboxRepo, log),
		GetInboxStatsUC:           webhookUsecases.NewGetInboxStatsUseCase(inboxRepo, log),
		Logger:                    log,
	}

	router := httpRouter.NewRouter(cfg, deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stoppables []interface{ Stop() }
	if !noWorkers {
		var workerLock *cache.WorkerLock
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// A single instance runs fine without the lease; log and go on.
			log.Warnw("redis unavailable, webhook worker runs without lease", "error", err)
		} else {
			workerLock = cache.NewWorkerLock(redisClient)
			defer redisClient.Close()
		}

		processInboundUC := webhookUsecases.NewProcessInboundEventUseCase(subscriptionRepo, unitOfWork, log)
		expireUC := subscriptionUsecases.NewExpireSubscriptionsUseCase(subscriptionRepo, unitOfWork, log)

		webhookWorker := scheduler.NewWebhookWorker(inboxRepo, processInboundUC, workerLock, &cfg.Webhook, log)
		outboxProcessor := scheduler.NewOutboxProcessor(outboxRepo, dispatcher, cfg.Billing.OutboxIntervalSeconds, log)
		subscriptionScheduler := scheduler.NewSubscriptionScheduler(expireUC, purgeUC, cfg.Billing.SweepIntervalMinutes, log)

		webhookWorker.Start(ctx)
		outboxProcessor.Start(ctx)
		subscriptionScheduler.Start(ctx)
		stoppables = []interface{ Stop() }{webhookWorker, outboxProcessor, subscriptionScheduler}
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	// Stop workers after the HTTP listener so in-flight requests finish
	// their dispatches first.
	for _, s := range stoppables {
		s.Stop()
	}
	cancel()

	log.Infow("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
