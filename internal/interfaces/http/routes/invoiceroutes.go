package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/interfaces/http/handlers"
)

// InvoiceRouteConfig holds dependencies for invoice routes.
type InvoiceRouteConfig struct {
	InvoiceHandler *handlers.InvoiceHandler
}

// SetupInvoiceRoutes configures invoice routes.
func SetupInvoiceRoutes(engine *gin.Engine, cfg *InvoiceRouteConfig) {
	invoices := engine.Group("/invoices")
	{
		invoices.POST("", cfg.InvoiceHandler.Create)
		invoices.GET("", cfg.InvoiceHandler.List)
	}
}
