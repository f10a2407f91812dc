package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/interfaces/http/handlers"
)

// SubscriptionRouteConfig holds dependencies for subscription routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
}

// SetupSubscriptionRoutes configures subscription routes.
func SetupSubscriptionRoutes(engine *gin.Engine, cfg *SubscriptionRouteConfig) {
	subscriptions := engine.Group("/subscriptions")
	{
		subscriptions.POST("", cfg.SubscriptionHandler.CreateTrial)
		subscriptions.GET("", cfg.SubscriptionHandler.List)
		subscriptions.GET("/:sid", cfg.SubscriptionHandler.Get)
		subscriptions.POST("/:sid/cancel", cfg.SubscriptionHandler.Cancel)
		subscriptions.PUT("/:sid/plan", cfg.SubscriptionHandler.UpgradePlan)
	}
}
