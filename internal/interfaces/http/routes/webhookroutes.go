package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/interfaces/http/handlers"
)

// WebhookRouteConfig holds dependencies for webhook routes.
type WebhookRouteConfig struct {
	WebhookHandler *handlers.WebhookHandler
}

// SetupWebhookRoutes configures the provider webhook ingestion route.
func SetupWebhookRoutes(engine *gin.Engine, cfg *WebhookRouteConfig) {
	webhooks := engine.Group("/webhooks")
	{
		webhooks.POST("/payment", cfg.WebhookHandler.Receive)
	}
}
