package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/application/billing/usecases"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
	"github.com/subtrack-inc/subtrack/internal/shared/utils"
)

// MaintenanceHandler exposes housekeeping operations that normally run on
// the scheduler, for operators who need to trigger them out of band.
type MaintenanceHandler struct {
	purgeUseCase *usecases.PurgeIdempotencyRecordsUseCase
	logger       logger.Interface
}

func NewMaintenanceHandler(purgeUC *usecases.PurgeIdempotencyRecordsUseCase, logger logger.Interface) *MaintenanceHandler {
	return &MaintenanceHandler{
		purgeUseCase: purgeUC,
		logger:       logger,
	}
}

// PurgeIdempotencyRecords deletes records past the retention window.
func (h *MaintenanceHandler) PurgeIdempotencyRecords(c *gin.Context) {
	deleted, err := h.purgeUseCase.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Purge completed", gin.H{
		"deleted": deleted,
	})
}
