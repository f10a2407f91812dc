package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/interfaces/http/handlers/admin"
)

// AdminRouteConfig holds dependencies for admin routes.
type AdminRouteConfig struct {
	DeadLetterHandler  *admin.DeadLetterHandler
	MaintenanceHandler *admin.MaintenanceHandler
}

// SetupAdminRoutes configures operator endpoints.
func SetupAdminRoutes(engine *gin.Engine, cfg *AdminRouteConfig) {
	adminGroup := engine.Group("/admin")
	{
		adminGroup.GET("/webhooks/stats", cfg.DeadLetterHandler.Stats)

		deadLetters := adminGroup.Group("/webhooks/dead-letters")
		{
			deadLetters.GET("", cfg.DeadLetterHandler.List)
			deadLetters.POST("/:sid/revive", cfg.DeadLetterHandler.Revive)
		}

		adminGroup.POST("/idempotency/purge", cfg.MaintenanceHandler.PurgeIdempotencyRecords)
	}
}
