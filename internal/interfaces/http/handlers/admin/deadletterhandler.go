// Package admin provides HTTP handlers for operator-facing endpoints.
package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/application/webhook/usecases"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
	"github.com/subtrack-inc/subtrack/internal/shared/utils"
)

// DeadLetterHandler exposes the webhook dead-letter queue to operators
type DeadLetterHandler struct {
	listUseCase   *usecases.ListDeadLettersUseCase
	reviveUseCase *usecases.ReviveDeadLetterUseCase
	statsUseCase  *usecases.GetInboxStatsUseCase
	logger        logger.Interface
}

func NewDeadLetterHandler(
	listUC *usecases.ListDeadLettersUseCase,
	reviveUC *usecases.ReviveDeadLetterUseCase,
	statsUC *usecases.GetInboxStatsUseCase,
	logger logger.Interface,
) *DeadLetterHandler {
	return &DeadLetterHandler{
		listUseCase:   listUC,
		reviveUseCase: reviveUC,
		statsUseCase:  statsUC,
		logger:        logger,
	}
}

func (h *DeadLetterHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.listUseCase.Execute(c.Request.Context(), usecases.ListDeadLettersQuery{
		EventType: c.Query("event_type"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortDesc:  c.Query("sort_desc") == "true",
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"messages": result.Messages,
		"total":    result.Total,
	})
}

// Stats reports inbox backlog and dead-letter counts.
func (h *DeadLetterHandler) Stats(c *gin.Context) {
	stats, err := h.statsUseCase.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", stats)
}

// Revive puts a dead-lettered message back in the retry rotation with a
// fresh attempt budget.
func (h *DeadLetterHandler) Revive(c *gin.Context) {
	sid := c.Param("sid")

	if err := h.reviveUseCase.Execute(c.Request.Context(), sid); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Message requeued for processing", nil)
}
