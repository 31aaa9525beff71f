package service

import (
	"strings"
	"time"

	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountService 折扣解析服务
type DiscountService struct {
	discountRepo repository.DiscountRepository
}

// NewDiscountService 创建折扣解析服务
func NewDiscountService(discountRepo repository.DiscountRepository) *DiscountService {
	return &DiscountService{discountRepo: discountRepo}
}

// FindBestDiscount 查找对用户与类型可用的最新折扣，无匹配时返回 nil
func (s *DiscountService) FindBestDiscount(userID uint, kind, discountType string, now time.Time) (*models.Discount, error) {
	candidates, err := s.discountRepo.ListCandidates(kind, now)
	if err != nil {
		return nil, err
	}
	return pickBestDiscount(candidates, userID, kind, discountType, now), nil
}

// 候选已按 created_at DESC, id DESC 排序，首个满足条件者即为最佳
func pickBestDiscount(candidates []models.Discount, userID uint, kind, discountType string, now time.Time) *models.Discount {
	for i := range candidates {
		if candidates[i].EligibleAt(userID, kind, discountType, now) {
			picked := candidates[i]
			return &picked
		}
	}
	return nil
}

// GetByCode 按折扣码查询，未知折扣码返回 nil
func (s *DiscountService) GetByCode(code string) (*models.Discount, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return s.discountRepo.GetByCode(code)
}

// Reduce 计算折后价：百分比优先，其次固定金额，结果不小于 0
func Reduce(price decimal.Decimal, discount *models.Discount) decimal.Decimal {
	if discount == nil {
		return price.Round(2)
	}
	result := price
	switch {
	case discount.Percentage != nil:
		ratio := decimal.NewFromInt(1).Sub(discount.Percentage.Decimal.Div(hundred))
		result = price.Mul(ratio)
	case discount.FixedAmount != nil:
		result = price.Sub(discount.FixedAmount.Decimal)
	}
	if result.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return result.Round(2)
}

// Reduce 计算折后价
func (s *DiscountService) Reduce(price decimal.Decimal, discount *models.Discount) decimal.Decimal {
	return Reduce(price, discount)
}
