package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subtrack-inc/subtrack/internal/application/webhook/usecases"
	"github.com/subtrack-inc/subtrack/internal/shared/logger"
	"github.com/subtrack-inc/subtrack/internal/shared/utils"
)

// maxWebhookBodyBytes bounds provider payloads; anything larger is rejected
// before it reaches the inbox.
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives provider event notifications. It only validates
// the envelope and enqueues; all business processing happens asynchronously
// in the worker, so the provider gets a fast acknowledgment.
type WebhookHandler struct {
	enqueueUseCase *usecases.EnqueueInboundEventUseCase
	logger         logger.Interface
}

func NewWebhookHandler(enqueueUC *usecases.EnqueueInboundEventUseCase, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		enqueueUseCase: enqueueUC,
		logger:         logger,
	}
}

type webhookEnvelope struct {
	ID   string `json:"id" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// Receive acknowledges redelivered events with 200 as well, since the
// inbox deduplicates on the provider's event ID.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxWebhookBodyBytes {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.ID == "" || envelope.Type == "" {
		h.logger.Warnw("malformed webhook envelope", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "event id and type are required")
		return
	}

	err = h.enqueueUseCase.Execute(c.Request.Context(), usecases.EnqueueInboundEventCommand{
		ExternalEventID: envelope.ID,
		EventType:       envelope.Type,
		Payload:         body,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Event accepted", nil)
}
