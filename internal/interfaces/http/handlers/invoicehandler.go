package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/application/billing/usecases"
	"github.com/subtrack-inc/subtrack/internal/shared/constants"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
	"github.com/subtrack-inc/subtrack/internal/shared/utils"
)

// InvoiceHandler handles one-off invoice creation and invoice queries
type InvoiceHandler struct {
	createInvoiceUseCase *usecases.CreateInvoiceUseCase
	listInvoicesUseCase  *usecases.ListInvoicesUseCase
	logger               logger.Interface
}

func NewInvoiceHandler(
	createInvoiceUC *usecases.CreateInvoiceUseCase,
	listInvoicesUC *usecases.ListInvoicesUseCase,
	logger logger.Interface,
) *InvoiceHandler {
	return &InvoiceHandler{
		createInvoiceUseCase: createInvoiceUC,
		listInvoicesUseCase:  listInvoicesUC,
		logger:               logger,
	}
}

// CreateInvoiceRequest represents the request to create a one-off invoice
type CreateInvoiceRequest struct {
	TenantSID       string `json:"tenant_sid" binding:"required"`
	SubscriptionSID string `json:"subscription_sid" binding:"required"`
	PlanCode        string `json:"plan_code" binding:"required"`
	AmountCents     int64  `json:"amount_cents" binding:"required,gt=0"`
	Currency        string `json:"currency" binding:"required,len=3"`
}

// CreateInvoiceResponse reports the created (or replayed) invoice
type CreateInvoiceResponse struct {
	InvoiceSID string `json:"invoice_sid"`
	Replayed   bool   `json:"replayed"`
}

// Create requires an Idempotency-Key header so client retries collapse
// into a single invoice.
func (h *InvoiceHandler) Create(c *gin.Context) {
	idempotencyKey := c.GetHeader(constants.HeaderIdempotencyKey)
	if idempotencyKey == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Idempotency-Key header is required")
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create invoice", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}

	result, err := h.createInvoiceUseCase.Execute(c.Request.Context(), usecases.CreateInvoiceCommand{
		TenantSID:       req.TenantSID,
		SubscriptionSID: req.SubscriptionSID,
		PlanCode:        req.PlanCode,
		AmountCents:     req.AmountCents,
		Currency:        req.Currency,
	}, idempotencyKey)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := CreateInvoiceResponse{
		InvoiceSID: result.InvoiceSID,
		Replayed:   result.Replayed,
	}
	if result.Replayed {
		// The original request already created the resource.
		utils.SuccessResponse(c, http.StatusOK, "Invoice already created", resp)
		return
	}

	utils.CreatedResponse(c, resp, "Invoice created")
}

func (h *InvoiceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.listInvoicesUseCase.Execute(c.Request.Context(), usecases.ListInvoicesQuery{
		TenantSID: c.Query("tenant_sid"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Invoices, result.Total, result.Page, result.PageSize)
}
