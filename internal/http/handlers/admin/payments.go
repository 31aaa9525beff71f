package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/imobiliare-next/internal/http/handlers/shared"
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminPayments 支付流水列表
func (h *Handler) GetAdminPayments(c *gin.Context) {
	page, pageSize := handlershared.ReadPagination(c)
	filter := repository.AnnouncementPaymentListFilter{
		Page:     page,
		PageSize: pageSize,
		Provider: strings.TrimSpace(c.Query("provider")),
	}
	if raw := strings.TrimSpace(c.Query("announcement_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.AnnouncementID = uint(parsed)
	}
	if flag := handlershared.ParseBoolQuery(c, "only_promotions"); flag != nil {
		filter.OnlyPromotions = *flag
	}

	var err error
	if filter.CreatedFrom, err = parseTimeNullable(strings.TrimSpace(c.Query("created_from"))); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if filter.CreatedTo, err = parseTimeNullable(strings.TrimSpace(c.Query("created_to"))); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payments, total, err := h.CatalogAdminService.ListPayments(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, payments, response.BuildPagination(page, pageSize, total))
}
