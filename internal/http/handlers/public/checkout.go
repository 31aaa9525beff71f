package public

import (
	"io"

	handlershared "github.com/imobiliare-next/internal/http/handlers/shared"
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CheckoutRequest 下单请求
type CheckoutRequest struct {
	AnnouncementID uint             `json:"announcement_id" binding:"required"`
	PackageID      uint             `json:"package_id" binding:"required"`
	PromotionID    *uint            `json:"promotion_id"`
	Amount         *decimal.Decimal `json:"amount"`
}

// Checkout 创建支付会话，应付为 0 时直接入账
func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.PromotionID != nil && *req.PromotionID == 0 {
		req.PromotionID = nil
	}

	result, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		UserID:         userID,
		CustomerEmail:  handlershared.ContextEmail(c),
		AnnouncementID: req.AnnouncementID,
		PackageID:      req.PackageID,
		PromotionID:    req.PromotionID,
		Amount:         req.Amount,
	})
	if err != nil {
		requestLog(c).Warnw("checkout_failed",
			"user_id", userID,
			"announcement_id", req.AnnouncementID,
			"package_id", req.PackageID,
			"error", err,
		)
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}

// StripeWebhook Stripe 支付回调；重复事件按成功返回
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	log.Infow("stripe_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)
	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}

	outcome, err := h.CheckoutService.HandleStripeWebhook(c.Request.Context(), headers, body)
	if err != nil {
		log.Warnw("stripe_webhook_handle_failed", "error", err)
		respondPaymentCallbackError(c, err)
		return
	}

	data := gin.H{
		"accepted":   true,
		"event_id":   outcome.EventID,
		"event_type": outcome.EventType,
		"ignored":    outcome.Ignored,
		"duplicate":  outcome.Duplicate,
	}
	if outcome.Payment != nil {
		data["payment_id"] = outcome.Payment.ID
	}
	response.Success(c, data)
}
