package admin

import (
	"strings"

	handlershared "github.com/imobiliare-next/internal/http/handlers/shared"
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"
	"github.com/imobiliare-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DiscountRequest 折扣请求，时间为 RFC3339
type DiscountRequest struct {
	Code              string           `json:"code" binding:"required"`
	Description       string           `json:"description"`
	Percentage        *decimal.Decimal `json:"percentage"`
	FixedAmount       *decimal.Decimal `json:"fixed_amount"`
	ValidFrom         string           `json:"valid_from" binding:"required"`
	ValidTo           string           `json:"valid_to" binding:"required"`
	UsageLimit        *int             `json:"usage_limit"`
	UsagePerUserLimit *int             `json:"usage_per_user_limit"`
	AllowedUserIDs    []uint           `json:"allowed_user_ids"`
	Kind              string           `json:"kind" binding:"required"`
	Types             []string         `json:"types"`
	Active            *bool            `json:"active"`
}

func (r DiscountRequest) toInput() (service.DiscountInput, error) {
	validFrom, err := parseTime(strings.TrimSpace(r.ValidFrom))
	if err != nil {
		return service.DiscountInput{}, err
	}
	validTo, err := parseTime(strings.TrimSpace(r.ValidTo))
	if err != nil {
		return service.DiscountInput{}, err
	}
	input := service.DiscountInput{
		Code:              r.Code,
		Description:       r.Description,
		ValidFrom:         validFrom,
		ValidTo:           validTo,
		UsageLimit:        r.UsageLimit,
		UsagePerUserLimit: r.UsagePerUserLimit,
		AllowedUserIDs:    r.AllowedUserIDs,
		Kind:              r.Kind,
		Types:             r.Types,
		Active:            r.Active,
	}
	if r.Percentage != nil {
		input.Percentage = models.NewMoneyPtr(*r.Percentage)
	}
	if r.FixedAmount != nil {
		input.FixedAmount = models.NewMoneyPtr(*r.FixedAmount)
	}
	return input, nil
}

// GetAdminDiscounts 折扣列表
func (h *Handler) GetAdminDiscounts(c *gin.Context) {
	page, pageSize := handlershared.ReadPagination(c)
	discounts, total, err := h.CatalogAdminService.ListDiscounts(repository.DiscountListFilter{
		Page:     page,
		PageSize: pageSize,
		Kind:     c.Query("kind"),
		Code:     c.Query("code"),
		IsActive: handlershared.ParseBoolQuery(c, "is_active"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.discount_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, discounts, response.BuildPagination(page, pageSize, total))
}

// CreateDiscount 创建折扣
func (h *Handler) CreateDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	discount, err := h.CatalogAdminService.CreateDiscount(input)
	if err != nil {
		respondDiscountError(c, err, "error.discount_save_failed")
		return
	}
	response.Success(c, discount)
}

// UpdateDiscount 更新折扣
func (h *Handler) UpdateDiscount(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	discount, err := h.CatalogAdminService.UpdateDiscount(id, input)
	if err != nil {
		respondDiscountError(c, err, "error.discount_save_failed")
		return
	}
	response.Success(c, discount)
}

// DeleteDiscount 删除折扣
func (h *Handler) DeleteDiscount(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CatalogAdminService.DeleteDiscount(id); err != nil {
		respondDiscountError(c, err, "error.discount_delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
