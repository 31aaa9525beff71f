package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/imobiliare-next/internal/http/handlers/shared"
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/repository"
	"github.com/imobiliare-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetListings 公开房源列表（推广优先排序）
func (h *Handler) GetListings(c *gin.Context) {
	filter, err := parseListingFilter(c)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	filter.Page, filter.PageSize = h.ListingService.NormalizePage(filter.Page, filter.PageSize)

	items, total, err := h.ListingService.FindPublicListings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.announcement_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, items, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// GetListing 公开房源详情
func (h *Handler) GetListing(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	announcement, err := h.ListingService.GetPublicListing(id)
	if err != nil {
		if errors.Is(err, service.ErrAnnouncementNotFound) {
			respondError(c, response.CodeNotFound, "error.announcement_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.announcement_fetch_failed", err)
		return
	}
	response.Success(c, announcement)
}

// parseListingFilter 解析查询参数，多值参数以逗号分隔
func parseListingFilter(c *gin.Context) (repository.ListingFilter, error) {
	filter := repository.ListingFilter{
		Cities:            splitList(c.Query("city")),
		County:            strings.TrimSpace(c.Query("county")),
		AnnouncementTypes: splitList(c.Query("announcement_type")),
		TransactionTypes:  splitList(c.Query("transaction_type")),
		ProviderType:      strings.TrimSpace(c.Query("provider_type")),
		Search:            strings.TrimSpace(c.Query("search")),
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("page_size"))

	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.UserID = uint(id)
	}

	var err error
	if filter.MinPrice, err = parseDecimalQuery(c, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parseDecimalQuery(c, "max_price"); err != nil {
		return filter, err
	}
	if filter.MinSurface, err = parseFloatQuery(c, "min_surface"); err != nil {
		return filter, err
	}
	if filter.MaxSurface, err = parseFloatQuery(c, "max_surface"); err != nil {
		return filter, err
	}
	if filter.Rooms, err = parseIntQuery(c, "rooms"); err != nil {
		return filter, err
	}
	if filter.MinRooms, err = parseIntQuery(c, "min_rooms"); err != nil {
		return filter, err
	}
	if filter.MaxRooms, err = parseIntQuery(c, "max_rooms"); err != nil {
		return filter, err
	}
	return filter, nil
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func parseDecimalQuery(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseFloatQuery(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseIntQuery(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
