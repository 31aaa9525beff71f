package service

import (
	"context"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/cache"
	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	defaultCatalogCacheTTL  = 5 * time.Minute
	catalogPackagesKeyBase  = "catalog:packages:"
	catalogPromotionsKey    = "catalog:promotions"
	catalogAllAudiencesSlug = "all"
)

// PackageQuote 展示套餐报价
type PackageQuote struct {
	Package         models.AnnouncementPackage `json:"package"`
	OriginalPrice   models.Money               `json:"original_price"`
	DiscountedPrice models.Money               `json:"discounted_price"`
	DiscountCode    *string                    `json:"discount_code,omitempty"`
	DiscountValidTo *time.Time                 `json:"discount_valid_to,omitempty"`
}

// PromotionQuote 推广套餐报价
type PromotionQuote struct {
	Promotion       models.PromotionPackage `json:"promotion"`
	OriginalPrice   models.Money            `json:"original_price"`
	DiscountedPrice models.Money            `json:"discounted_price"`
	DiscountCode    *string                 `json:"discount_code,omitempty"`
	DiscountValidTo *time.Time              `json:"discount_valid_to,omitempty"`
}

// CatalogQuote 套餐目录整体报价
type CatalogQuote struct {
	Packages   []PackageQuote   `json:"packages"`
	Promotions []PromotionQuote `json:"promotions"`
}

// PricingService 套餐报价服务（只读）
type PricingService struct {
	packageRepo   repository.AnnouncementPackageRepository
	promotionRepo repository.PromotionPackageRepository
	discountRepo  repository.DiscountRepository
	cache         *cache.Store
	cacheTTL      time.Duration
	now           func() time.Time
}

// NewPricingService 创建报价服务
func NewPricingService(
	packageRepo repository.AnnouncementPackageRepository,
	promotionRepo repository.PromotionPackageRepository,
	discountRepo repository.DiscountRepository,
	store *cache.Store,
	cacheTTL time.Duration,
) *PricingService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCatalogCacheTTL
	}
	return &PricingService{
		packageRepo:   packageRepo,
		promotionRepo: promotionRepo,
		discountRepo:  discountRepo,
		cache:         store,
		cacheTTL:      cacheTTL,
		now:           time.Now,
	}
}

// QuoteAnnouncementPackages 计算用户可见的展示套餐价格
func (s *PricingService) QuoteAnnouncementPackages(ctx context.Context, userID uint, audience string) ([]PackageQuote, error) {
	packages, err := s.activePackages(ctx, audience)
	if err != nil {
		return nil, err
	}
	now := s.now()
	candidates, err := s.discountRepo.ListCandidates(constants.DiscountKindPackage, now)
	if err != nil {
		return nil, err
	}

	quotes := make([]PackageQuote, 0, len(packages))
	for _, pkg := range packages {
		discount := pickBestDiscount(candidates, userID, constants.DiscountKindPackage, pkg.PackageType, now)
		quote := PackageQuote{
			Package:         pkg,
			OriginalPrice:   pkg.Price,
			DiscountedPrice: models.NewMoneyFromDecimal(Reduce(pkg.Price.Decimal, discount)),
		}
		quote.DiscountCode, quote.DiscountValidTo = discountRef(discount)
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// QuotePromotionPackages 计算用户可见的推广套餐价格
func (s *PricingService) QuotePromotionPackages(ctx context.Context, userID uint) ([]PromotionQuote, error) {
	promotions, err := s.activePromotions(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	candidates, err := s.discountRepo.ListCandidates(constants.DiscountKindPromotion, now)
	if err != nil {
		return nil, err
	}

	quotes := make([]PromotionQuote, 0, len(promotions))
	for _, promotion := range promotions {
		discount := pickBestDiscount(candidates, userID, constants.DiscountKindPromotion, promotion.PromotionType, now)
		quote := PromotionQuote{
			Promotion:       promotion,
			OriginalPrice:   promotion.Price,
			DiscountedPrice: models.NewMoneyFromDecimal(Reduce(promotion.Price.Decimal, discount)),
		}
		quote.DiscountCode, quote.DiscountValidTo = discountRef(discount)
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// QuoteCatalog 并发计算两类套餐报价
func (s *PricingService) QuoteCatalog(ctx context.Context, userID uint, audience string) (*CatalogQuote, error) {
	result := &CatalogQuote{}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		quotes, err := s.QuoteAnnouncementPackages(groupCtx, userID, audience)
		if err != nil {
			return err
		}
		result.Packages = quotes
		return nil
	})
	group.Go(func() error {
		quotes, err := s.QuotePromotionPackages(groupCtx, userID)
		if err != nil {
			return err
		}
		result.Promotions = quotes
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// InvalidateCatalog 清除目录缓存（后台修改套餐后调用）
func (s *PricingService) InvalidateCatalog(ctx context.Context) {
	if s == nil || !s.cache.Enabled() {
		return
	}
	keys := []string{
		catalogPromotionsKey,
		catalogPackagesKeyBase + catalogAllAudiencesSlug,
		catalogPackagesKeyBase + constants.AudienceNormal,
		catalogPackagesKeyBase + constants.AudienceEnsemble,
		catalogPackagesKeyBase + constants.AudienceAgency,
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.Warnw("catalog_cache_invalidate_failed", "error", err)
	}
}

func (s *PricingService) activePackages(ctx context.Context, audience string) ([]models.AnnouncementPackage, error) {
	audience = strings.TrimSpace(audience)
	slug := audience
	if slug == "" {
		slug = catalogAllAudiencesSlug
	}
	key := catalogPackagesKeyBase + slug

	var cached []models.AnnouncementPackage
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		logger.Warnw("catalog_cache_read_failed", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}

	packages, err := s.packageRepo.ListActive(audience)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, packages, s.cacheTTL); err != nil {
		logger.Warnw("catalog_cache_write_failed", "key", key, "error", err)
	}
	return packages, nil
}

func (s *PricingService) activePromotions(ctx context.Context) ([]models.PromotionPackage, error) {
	var cached []models.PromotionPackage
	if hit, err := s.cache.GetJSON(ctx, catalogPromotionsKey, &cached); err != nil {
		logger.Warnw("catalog_cache_read_failed", "key", catalogPromotionsKey, "error", err)
	} else if hit {
		return cached, nil
	}

	promotions, err := s.promotionRepo.ListActive()
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, catalogPromotionsKey, promotions, s.cacheTTL); err != nil {
		logger.Warnw("catalog_cache_write_failed", "key", catalogPromotionsKey, "error", err)
	}
	return promotions, nil
}

func discountRef(discount *models.Discount) (*string, *time.Time) {
	if discount == nil {
		return nil, nil
	}
	code := discount.Code
	validTo := discount.ValidTo
	return &code, &validTo
}
