package public

import (
	"strings"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func readAudience(c *gin.Context) (string, bool) {
	audience := strings.ToLower(strings.TrimSpace(c.Query("audience")))
	if audience == "" || constants.IsValidAudience(audience) {
		return audience, true
	}
	return "", false
}

// GetPackages 展示套餐报价（含当前用户可用的最优折扣）
func (h *Handler) GetPackages(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	audience, ok := readAudience(c)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	quotes, err := h.PricingService.QuoteAnnouncementPackages(c.Request.Context(), userID, audience)
	if err != nil {
		respondError(c, response.CodeInternal, "error.quote_failed", err)
		return
	}
	response.Success(c, quotes)
}

// GetPromotions 推广套餐报价
func (h *Handler) GetPromotions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	quotes, err := h.PricingService.QuotePromotionPackages(c.Request.Context(), userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.quote_failed", err)
		return
	}
	response.Success(c, quotes)
}

// GetCatalog 同时返回展示套餐与推广套餐报价
func (h *Handler) GetCatalog(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	audience, ok := readAudience(c)
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	catalog, err := h.PricingService.QuoteCatalog(c.Request.Context(), userID, audience)
	if err != nil {
		respondError(c, response.CodeInternal, "error.quote_failed", err)
		return
	}
	response.Success(c, catalog)
}
