// Package handlers provides HTTP handlers for the public billing API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/application/subscription/usecases"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
	"github.com/subtrack-inc/subtrack/internal/shared/utils"
)

// SubscriptionHandler handles subscription lifecycle operations
type SubscriptionHandler struct {
	createTrialUseCase *usecases.CreateTrialSubscriptionUseCase
	getUseCase         *usecases.GetSubscriptionUseCase
	listUseCase        *usecases.ListSubscriptionsUseCase
	cancelUseCase      *usecases.CancelSubscriptionUseCase
	upgradePlanUseCase *usecases.UpgradePlanUseCase
	logger             logger.Interface
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(
	createTrialUC *usecases.CreateTrialSubscriptionUseCase,
	getUC *usecases.GetSubscriptionUseCase,
	listUC *usecases.ListSubscriptionsUseCase,
	cancelUC *usecases.CancelSubscriptionUseCase,
	upgradePlanUC *usecases.UpgradePlanUseCase,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		createTrialUseCase: createTrialUC,
		getUseCase:         getUC,
		listUseCase:        listUC,
		cancelUseCase:      cancelUC,
		upgradePlanUseCase: upgradePlanUC,
		logger:             logger,
	}
}

// CreateTrialRequest represents the request to start a trial subscription
type CreateTrialRequest struct {
	TenantSID string `json:"tenant_sid" binding:"required"`
	PlanCode  string `json:"plan_code" binding:"required"`
}

// UpgradePlanRequest represents the request to change a subscription's plan
type UpgradePlanRequest struct {
	NewPlanCode string `json:"new_plan_code" binding:"required"`
}

func (h *SubscriptionHandler) CreateTrial(c *gin.Context) {
	var req CreateTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create trial subscription", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	sub, err := h.createTrialUseCase.Execute(c.Request.Context(), usecases.CreateTrialSubscriptionCommand{
		TenantSID: req.TenantSID,
		PlanCode:  req.PlanCode,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	dto, err := h.getUseCase.Execute(c.Request.Context(), sub.SID())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto, "Trial subscription created")
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	dto, err := h.getUseCase.Execute(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto)
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.listUseCase.Execute(c.Request.Context(), usecases.ListSubscriptionsQuery{
		TenantSID: c.Query("tenant_sid"),
		PlanCode:  c.Query("plan_code"),
		Status:    c.Query("status"),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    c.Query("sort_by"),
		SortDesc:  c.Query("sort_order") == "desc",
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Subscriptions, result.Total, result.Page, result.PageSize)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sid := c.Param("sid")

	if err := h.cancelUseCase.Execute(c.Request.Context(), sid); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription canceled", nil)
}

func (h *SubscriptionHandler) UpgradePlan(c *gin.Context) {
	var req UpgradePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for upgrade plan", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	err := h.upgradePlanUseCase.Execute(c.Request.Context(), usecases.UpgradePlanCommand{
		SubscriptionSID: c.Param("sid"),
		NewPlanCode:     req.NewPlanCode,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan updated", nil)
}
