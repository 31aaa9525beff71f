package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"
)

// CatalogAdminService 套餐与折扣后台管理
type CatalogAdminService struct {
	packageRepo   repository.AnnouncementPackageRepository
	promotionRepo repository.PromotionPackageRepository
	discountRepo  repository.DiscountRepository
	paymentRepo   repository.AnnouncementPaymentRepository
	pricing       *PricingService
}

// NewCatalogAdminService 创建后台管理服务
func NewCatalogAdminService(
	packageRepo repository.AnnouncementPackageRepository,
	promotionRepo repository.PromotionPackageRepository,
	discountRepo repository.DiscountRepository,
	paymentRepo repository.AnnouncementPaymentRepository,
	pricing *PricingService,
) *CatalogAdminService {
	return &CatalogAdminService{
		packageRepo:   packageRepo,
		promotionRepo: promotionRepo,
		discountRepo:  discountRepo,
		paymentRepo:   paymentRepo,
		pricing:       pricing,
	}
}

// PackageInput 展示套餐输入
type PackageInput struct {
	Label        string
	Price        models.Money
	Currency     string
	DurationDays *int
	PackageType  string
	Audience     string
	Active       *bool
	SortOrder    int
}

// PromotionPackageInput 推广套餐输入
type PromotionPackageInput struct {
	Label         string
	Price         models.Money
	Currency      string
	DurationDays  int
	PromotionType string
	Active        *bool
	SortOrder     int
}

// DiscountInput 折扣输入
type DiscountInput struct {
	Code              string
	Description       string
	Percentage        *models.Money
	FixedAmount       *models.Money
	ValidFrom         time.Time
	ValidTo           time.Time
	UsageLimit        *int
	UsagePerUserLimit *int
	AllowedUserIDs    []uint
	Kind              string
	Types             []string
	Active            *bool
}

// ListPackages 后台展示套餐列表
func (s *CatalogAdminService) ListPackages(filter repository.PackageListFilter) ([]models.AnnouncementPackage, int64, error) {
	return s.packageRepo.List(filter)
}

// CreatePackage 创建展示套餐
func (s *CatalogAdminService) CreatePackage(ctx context.Context, input PackageInput) (*models.AnnouncementPackage, error) {
	pkg := &models.AnnouncementPackage{Active: true}
	if err := applyPackageInput(pkg, input); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Create(pkg); err != nil {
		return nil, err
	}
	// bool 零值会被 default:true 覆盖，下架状态需二次写入
	if !pkg.Active {
		if err := s.packageRepo.Update(pkg); err != nil {
			return nil, err
		}
	}
	s.afterCatalogWrite(ctx, "package_created", pkg.ID)
	return pkg, nil
}

// UpdatePackage 更新展示套餐；已被支付引用时禁止修改计价字段
func (s *CatalogAdminService) UpdatePackage(ctx context.Context, id uint, input PackageInput) (*models.AnnouncementPackage, error) {
	existing, err := s.packageRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrPackageNotFound
	}
	updated := *existing
	if err := applyPackageInput(&updated, input); err != nil {
		return nil, err
	}
	if packagePricingChanged(existing, &updated) {
		inUse, err := s.paymentRepo.ExistsByPackageID(id)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, fmt.Errorf("%w: package id=%d", ErrPackageInUse, id)
		}
	}
	if err := s.packageRepo.Update(&updated); err != nil {
		return nil, err
	}
	s.afterCatalogWrite(ctx, "package_updated", id)
	return &updated, nil
}

// DeletePackage 删除展示套餐；已被引用的套餐只能下架
func (s *CatalogAdminService) DeletePackage(ctx context.Context, id uint) error {
	existing, err := s.packageRepo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPackageNotFound
	}
	inUse, err := s.paymentRepo.ExistsByPackageID(id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: package id=%d", ErrPackageInUse, id)
	}
	if err := s.packageRepo.Delete(id); err != nil {
		return err
	}
	s.afterCatalogWrite(ctx, "package_deleted", id)
	return nil
}

// ListPromotionPackages 后台推广套餐列表
func (s *CatalogAdminService) ListPromotionPackages(filter repository.PackageListFilter) ([]models.PromotionPackage, int64, error) {
	return s.promotionRepo.List(filter)
}

// CreatePromotionPackage 创建推广套餐
func (s *CatalogAdminService) CreatePromotionPackage(ctx context.Context, input PromotionPackageInput) (*models.PromotionPackage, error) {
	promotion := &models.PromotionPackage{Active: true}
	if err := applyPromotionInput(promotion, input); err != nil {
		return nil, err
	}
	if err := s.promotionRepo.Create(promotion); err != nil {
		return nil, err
	}
	if !promotion.Active {
		if err := s.promotionRepo.Update(promotion); err != nil {
			return nil, err
		}
	}
	s.afterCatalogWrite(ctx, "promotion_package_created", promotion.ID)
	return promotion, nil
}

// UpdatePromotionPackage 更新推广套餐
func (s *CatalogAdminService) UpdatePromotionPackage(ctx context.Context, id uint, input PromotionPackageInput) (*models.PromotionPackage, error) {
	existing, err := s.promotionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrPromotionPackageNotFound
	}
	updated := *existing
	if err := applyPromotionInput(&updated, input); err != nil {
		return nil, err
	}
	if promotionPricingChanged(existing, &updated) {
		inUse, err := s.paymentRepo.ExistsByPromotionID(id)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, fmt.Errorf("%w: promotion id=%d", ErrPackageInUse, id)
		}
	}
	if err := s.promotionRepo.Update(&updated); err != nil {
		return nil, err
	}
	s.afterCatalogWrite(ctx, "promotion_package_updated", id)
	return &updated, nil
}

// DeletePromotionPackage 删除推广套餐
func (s *CatalogAdminService) DeletePromotionPackage(ctx context.Context, id uint) error {
	existing, err := s.promotionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPromotionPackageNotFound
	}
	inUse, err := s.paymentRepo.ExistsByPromotionID(id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: promotion id=%d", ErrPackageInUse, id)
	}
	if err := s.promotionRepo.Delete(id); err != nil {
		return err
	}
	s.afterCatalogWrite(ctx, "promotion_package_deleted", id)
	return nil
}

// ListDiscounts 后台折扣列表
func (s *CatalogAdminService) ListDiscounts(filter repository.DiscountListFilter) ([]models.Discount, int64, error) {
	return s.discountRepo.List(filter)
}

// CreateDiscount 创建折扣
func (s *CatalogAdminService) CreateDiscount(input DiscountInput) (*models.Discount, error) {
	discount := &models.Discount{Active: true}
	if err := applyDiscountInput(discount, input); err != nil {
		return nil, err
	}
	exist, err := s.discountRepo.GetByCode(discount.Code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrDiscountCodeExists
	}
	if err := s.discountRepo.Create(discount); err != nil {
		return nil, err
	}
	if !discount.Active {
		if err := s.discountRepo.Update(discount); err != nil {
			return nil, err
		}
	}
	logger.Infow("catalog_discount_created", "discount_id", discount.ID, "code", discount.Code)
	return discount, nil
}

// UpdateDiscount 更新折扣
func (s *CatalogAdminService) UpdateDiscount(id uint, input DiscountInput) (*models.Discount, error) {
	existing, err := s.discountRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrDiscountNotFound
	}
	originalCode := existing.Code
	if err := applyDiscountInput(existing, input); err != nil {
		return nil, err
	}
	if existing.Code != originalCode {
		dup, err := s.discountRepo.GetByCode(existing.Code)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrDiscountCodeExists
		}
	}
	if err := s.discountRepo.Update(existing); err != nil {
		return nil, err
	}
	logger.Infow("catalog_discount_updated", "discount_id", existing.ID, "code", existing.Code)
	return existing, nil
}

// DeleteDiscount 删除折扣（软删除，历史支付仍可关联）
func (s *CatalogAdminService) DeleteDiscount(id uint) error {
	existing, err := s.discountRepo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrDiscountNotFound
	}
	return s.discountRepo.Delete(id)
}

// ListPayments 后台支付流水
func (s *CatalogAdminService) ListPayments(filter repository.AnnouncementPaymentListFilter) ([]models.AnnouncementPayment, int64, error) {
	return s.paymentRepo.ListAdmin(filter)
}

func (s *CatalogAdminService) afterCatalogWrite(ctx context.Context, event string, id uint) {
	logger.Infow("catalog_"+event, "id", id)
	if s.pricing != nil {
		s.pricing.InvalidateCatalog(ctx)
	}
}

func applyPackageInput(pkg *models.AnnouncementPackage, input PackageInput) error {
	label := strings.TrimSpace(input.Label)
	packageType := strings.TrimSpace(input.PackageType)
	audience := strings.TrimSpace(input.Audience)
	if audience == "" {
		audience = constants.AudienceNormal
	}
	if label == "" || !constants.IsValidPackageType(packageType) || !constants.IsValidAudience(audience) {
		return ErrPackageInvalid
	}
	if input.Price.Decimal.IsNegative() {
		return ErrPackageInvalid
	}
	if input.DurationDays != nil && *input.DurationDays <= 0 {
		return ErrPackageInvalid
	}
	pkg.Label = label
	pkg.Price = models.NewMoneyFromDecimal(input.Price.Decimal)
	pkg.Currency = normalizeCurrency(input.Currency)
	pkg.DurationDays = input.DurationDays
	pkg.PackageType = packageType
	pkg.Audience = audience
	pkg.SortOrder = input.SortOrder
	if input.Active != nil {
		pkg.Active = *input.Active
	}
	return nil
}

func applyPromotionInput(promotion *models.PromotionPackage, input PromotionPackageInput) error {
	label := strings.TrimSpace(input.Label)
	promotionType := strings.TrimSpace(input.PromotionType)
	if label == "" || !constants.IsValidPromotionType(promotionType) {
		return ErrPackageInvalid
	}
	if input.Price.Decimal.IsNegative() || input.DurationDays <= 0 {
		return ErrPackageInvalid
	}
	promotion.Label = label
	promotion.Price = models.NewMoneyFromDecimal(input.Price.Decimal)
	promotion.Currency = normalizeCurrency(input.Currency)
	promotion.DurationDays = input.DurationDays
	promotion.PromotionType = promotionType
	promotion.SortOrder = input.SortOrder
	if input.Active != nil {
		promotion.Active = *input.Active
	}
	return nil
}

func applyDiscountInput(discount *models.Discount, input DiscountInput) error {
	code := strings.TrimSpace(input.Code)
	kind := strings.TrimSpace(input.Kind)
	if code == "" || (kind != constants.DiscountKindPackage && kind != constants.DiscountKindPromotion) {
		return ErrDiscountInvalid
	}
	if input.ValidFrom.IsZero() || input.ValidTo.IsZero() || input.ValidTo.Before(input.ValidFrom) {
		return ErrDiscountInvalid
	}
	if input.Percentage != nil {
		p := input.Percentage.Decimal
		if p.IsNegative() || p.GreaterThan(hundred) {
			return ErrDiscountInvalid
		}
	}
	if input.FixedAmount != nil && input.FixedAmount.Decimal.IsNegative() {
		return ErrDiscountInvalid
	}
	types := make(models.StringArray, 0, len(input.Types))
	for _, item := range input.Types {
		item = strings.TrimSpace(item)
		valid := constants.IsValidPackageType(item)
		if kind == constants.DiscountKindPromotion {
			valid = constants.IsValidPromotionType(item)
		}
		if !valid {
			return ErrDiscountInvalid
		}
		if !types.Contains(item) {
			types = append(types, item)
		}
	}
	if len(types) == 0 {
		return ErrDiscountInvalid
	}

	discount.Code = code
	discount.Description = strings.TrimSpace(input.Description)
	discount.Percentage = input.Percentage
	discount.FixedAmount = input.FixedAmount
	discount.ValidFrom = input.ValidFrom
	discount.ValidTo = input.ValidTo
	discount.UsageLimit = input.UsageLimit
	discount.UsagePerUserLimit = input.UsagePerUserLimit
	discount.Applicability = models.DiscountApplicability{Kind: kind, Types: types}
	if input.AllowedUserIDs == nil {
		discount.AllowedUserIDs = nil
	} else {
		discount.AllowedUserIDs = models.UintSet(input.AllowedUserIDs)
	}
	if input.Active != nil {
		discount.Active = *input.Active
	}
	return nil
}

func packagePricingChanged(before, after *models.AnnouncementPackage) bool {
	return !before.Price.Decimal.Equal(after.Price.Decimal) ||
		before.Currency != after.Currency ||
		before.PackageType != after.PackageType ||
		!sameDuration(before.DurationDays, after.DurationDays)
}

func promotionPricingChanged(before, after *models.PromotionPackage) bool {
	return !before.Price.Decimal.Equal(after.Price.Decimal) ||
		before.Currency != after.Currency ||
		before.PromotionType != after.PromotionType ||
		before.DurationDays != after.DurationDays
}

func sameDuration(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return "EUR"
	}
	return currency
}
