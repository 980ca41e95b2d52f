package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	appshop "github.com/werkbank-erp/backend/internal/application/shop"
	"github.com/werkbank-erp/backend/internal/domain/shop"
	"github.com/werkbank-erp/backend/internal/infrastructure/logger"
	"github.com/werkbank-erp/backend/internal/interfaces/http/dto"
)

// defaultOrderTopic is assumed when the platform omits the topic header
const defaultOrderTopic = "orders/paid"

// WebhookHandler receives order webhook deliveries from the shop platform
type WebhookHandler struct {
	BaseHandler
	intake *appshop.WebhookIntakeService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(intake *appshop.WebhookIntakeService) *WebhookHandler {
	return &WebhookHandler{intake: intake}
}

// HandleOrderWebhook handles POST /webhooks/orders. The raw body is passed
// through to the intake service untouched; it is also what gets persisted as
// the delivery snapshot, so no re-serialization happens here.
func (h *WebhookHandler) HandleOrderWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Error(c, 413, dto.ErrCodeRequestTooLarge, "Failed to read request body")
		return
	}
	if len(raw) == 0 {
		h.BadRequest(c, "Request body is empty")
		return
	}

	topic := c.GetHeader("X-Webhook-Topic")
	if topic == "" {
		topic = defaultOrderTopic
	}
	deliveryID := c.GetHeader("X-Delivery-ID")

	ctx := c.Request.Context()
	if deliveryID != "" {
		ctx, _ = logger.WithDeliveryID(ctx, logger.FromContext(ctx), deliveryID)
	}

	result, err := h.intake.HandleOrderWebhook(ctx, topic, deliveryID, raw)
	if err != nil {
		if isPayloadError(err) {
			h.Error(c, 400, dto.ErrCodeInvalidJSON, err.Error())
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// isPayloadError reports whether err stems from an unusable order payload
func isPayloadError(err error) bool {
	return errors.Is(err, shop.ErrPayloadInvalid) ||
		errors.Is(err, shop.ErrPayloadMissingOrderID) ||
		errors.Is(err, shop.ErrPayloadNoLineItems) ||
		errors.Is(err, shop.ErrPayloadInvalidQuantity)
}

// RegisterRoutes registers webhook intake routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/orders", h.HandleOrderWebhook)
	}
}
