// Package http assembles the gin engine from handlers, middleware, and
// route groups.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	billingUsecases "github.com/subtrack-inc/subtrack/internal/application/billing/usecases"
	subscriptionUsecases "github.com/subtrack-inc/subtrack/internal/application/subscription/usecases"
	webhookUsecases "github.com/subtrack-inc/subtrack/internal/application/webhook/usecases"
	"github.com/subtrack-inc/subtrack/internal/infrastructure/config"
	"github.com/subtrack-inc/subtrack/internal/interfaces/http/handlers"
	"github.com/subtrack-inc/subtrack/internal/interfaces/http/handlers/admin"
	"github.com/subtrack-inc/subtrack/internal/interfaces/http/middleware"
	"github.com/subtrack-inc/subtrack/internal/interfaces/http/routes"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
)

// Dependencies carries the application-layer use cases the HTTP surface
// exposes. The server command owns construction so the same instances back
// both the API and the background workers.
type Dependencies struct {
	CreateTrialSubscriptionUC *subscriptionUsecases.CreateTrialSubscriptionUseCase
	GetSubscriptionUC         *subscriptionUsecases.GetSubscriptionUseCase
	ListSubscriptionsUC       *subscriptionUsecases.ListSubscriptionsUseCase
	CancelSubscriptionUC      *subscriptionUsecases.CancelSubscriptionUseCase
	UpgradePlanUC             *subscriptionUsecases.UpgradePlanUseCase

	CreateInvoiceUC    *billingUsecases.CreateInvoiceUseCase
	ListInvoicesUC     *billingUsecases.ListInvoicesUseCase
	PurgeIdempotencyUC *billingUsecases.PurgeIdempotencyRecordsUseCase

	EnqueueInboundEventUC *webhookUsecases.EnqueueInboundEventUseCase
	ListDeadLettersUC     *webhookUsecases.ListDeadLettersUseCase
	ReviveDeadLetterUC    *webhookUsecases.ReviveDeadLetterUseCase
	GetInboxStatsUC       *webhookUsecases.GetInboxStatsUseCase

	Logger logger.Interface
}

// Router holds the configured gin engine
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the engine with middleware, health probe, and all route
// groups.
func NewRouter(cfg *config.Config, deps *Dependencies) *Router {
	engine := gin.New()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(deps.Logger))
	engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	subscriptionHandler := handlers.NewSubscriptionHandler(
		deps.CreateTrialSubscriptionUC,
		deps.GetSubscriptionUC,
		deps.ListSubscriptionsUC,
		deps.CancelSubscriptionUC,
		deps.UpgradePlanUC,
		deps.Logger,
	)
	invoiceHandler := handlers.NewInvoiceHandler(deps.CreateInvoiceUC, deps.ListInvoicesUC, deps.Logger)
	webhookHandler := handlers.NewWebhookHandler(deps.EnqueueInboundEventUC, deps.Logger)
	deadLetterHandler := admin.NewDeadLetterHandler(deps.ListDeadLettersUC, deps.ReviveDeadLetterUC, deps.GetInboxStatsUC, deps.Logger)
	maintenanceHandler := admin.NewMaintenanceHandler(deps.PurgeIdempotencyUC, deps.Logger)

	routes.SetupSubscriptionRoutes(engine, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: subscriptionHandler,
	})
	routes.SetupInvoiceRoutes(engine, &routes.InvoiceRouteConfig{
		InvoiceHandler: invoiceHandler,
	})
	routes.SetupWebhookRoutes(engine, &routes.WebhookRouteConfig{
		WebhookHandler: webhookHandler,
	})
	routes.SetupAdminRoutes(engine, &routes.AdminRouteConfig{
		DeadLetterHandler:  deadLetterHandler,
		MaintenanceHandler: maintenanceHandler,
	})

	return &Router{engine: engine}
}

// Engine returns the underlying gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
