package admin

import (
	handlershared "github.com/imobiliare-next/internal/http/handlers/shared"
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"
	"github.com/imobiliare-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PackageRequest 展示套餐请求
type PackageRequest struct {
	Label        string          `json:"label" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	DurationDays *int            `json:"duration_days"`
	PackageType  string          `json:"package_type" binding:"required"`
	Audience     string          `json:"audience"`
	Active       *bool           `json:"active"`
	SortOrder    int             `json:"sort_order"`
}

func (r PackageRequest) toInput() service.PackageInput {
	return service.PackageInput{
		Label:        r.Label,
		Price:        models.NewMoneyFromDecimal(r.Price),
		Currency:     r.Currency,
		DurationDays: r.DurationDays,
		PackageType:  r.PackageType,
		Audience:     r.Audience,
		Active:       r.Active,
		SortOrder:    r.SortOrder,
	}
}

// PromotionPackageRequest 推广套餐请求
type PromotionPackageRequest struct {
	Label         string          `json:"label" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	DurationDays  int             `json:"duration_days" binding:"required"`
	PromotionType string          `json:"promotion_type" binding:"required"`
	Active        *bool           `json:"active"`
	SortOrder     int             `json:"sort_order"`
}

func (r PromotionPackageRequest) toInput() service.PromotionPackageInput {
	return service.PromotionPackageInput{
		Label:         r.Label,
		Price:         models.NewMoneyFromDecimal(r.Price),
		Currency:      r.Currency,
		DurationDays:  r.DurationDays,
		PromotionType: r.PromotionType,
		Active:        r.Active,
		SortOrder:     r.SortOrder,
	}
}

func readPackageFilter(c *gin.Context) repository.PackageListFilter {
	page, pageSize := handlershared.ReadPagination(c)
	return repository.PackageListFilter{
		Page:     page,
		PageSize: pageSize,
		Audience: c.Query("audience"),
		IsActive: handlershared.ParseBoolQuery(c, "is_active"),
	}
}

// GetAdminPackages 展示套餐列表
func (h *Handler) GetAdminPackages(c *gin.Context) {
	filter := readPackageFilter(c)
	packages, total, err := h.CatalogAdminService.ListPackages(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.package_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, packages, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// CreatePackage 创建展示套餐
func (h *Handler) CreatePackage(c *gin.Context) {
	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	pkg, err := h.CatalogAdminService.CreatePackage(c.Request.Context(), req.toInput())
	if err != nil {
		respondPackageError(c, err, "error.package_save_failed")
		return
	}
	response.Success(c, pkg)
}

// UpdatePackage 更新展示套餐
func (h *Handler) UpdatePackage(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	pkg, err := h.CatalogAdminService.UpdatePackage(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondPackageError(c, err, "error.package_save_failed")
		return
	}
	response.Success(c, pkg)
}

// DeletePackage 删除展示套餐
func (h *Handler) DeletePackage(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CatalogAdminService.DeletePackage(c.Request.Context(), id); err != nil {
		respondPackageError(c, err, "error.package_delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetAdminPromotionPackages 推广套餐列表
func (h *Handler) GetAdminPromotionPackages(c *gin.Context) {
	filter := readPackageFilter(c)
	packages, total, err := h.CatalogAdminService.ListPromotionPackages(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.package_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, packages, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// CreatePromotionPackage 创建推广套餐
func (h *Handler) CreatePromotionPackage(c *gin.Context) {
	var req PromotionPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	promotion, err := h.CatalogAdminService.CreatePromotionPackage(c.Request.Context(), req.toInput())
	if err != nil {
		respondPackageError(c, err, "error.package_save_failed")
		return
	}
	response.Success(c, promotion)
}

// UpdatePromotionPackage 更新推广套餐
func (h *Handler) UpdatePromotionPackage(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req PromotionPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	promotion, err := h.CatalogAdminService.UpdatePromotionPackage(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondPackageError(c, err, "error.package_save_failed")
		return
	}
	response.Success(c, promotion)
}

// DeletePromotionPackage 删除推广套餐
func (h *Handler) DeletePromotionPackage(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CatalogAdminService.DeletePromotionPackage(c.Request.Context(), id); err != nil {
		respondPackageError(c, err, "error.package_delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
