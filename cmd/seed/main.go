package main

import (
	"time"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now().In(cfg.Schedule.Location())
	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		created, err := seedPackages(tx)
		if err != nil {
			return err
		}
		logger.Infow("seed_packages_done", "created", created)

		created, err = seedPromotions(tx)
		if err != nil {
			return err
		}
		logger.Infow("seed_promotions_done", "created", created)

		created, err = seedDiscounts(tx, now)
		if err != nil {
			return err
		}
		logger.Infow("seed_discounts_done", "created", created)
		return nil
	}); err != nil {
		stdLog.Fatalf("Failed to seed catalog: %v", err)
	}

	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}
	stdLog.Printf("Seed completed")
}

func intPtr(v int) *int {
	return &v
}

func eur(v int64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromInt(v))
}

// defaultPackages 默认展示套餐，按 packageType 去重
func defaultPackages() []models.AnnouncementPackage {
	return []models.AnnouncementPackage{
		{Label: "Free Package", Price: eur(0), DurationDays: intPtr(3), PackageType: constants.PackageTypeFree, Audience: constants.AudienceNormal, SortOrder: 1},
		{Label: "7 Days Package", Price: eur(7), DurationDays: intPtr(7), PackageType: constants.PackageType7Days, Audience: constants.AudienceNormal, SortOrder: 2},
		{Label: "15 Days Package", Price: eur(15), DurationDays: intPtr(15), PackageType: constants.PackageType15Days, Audience: constants.AudienceNormal, SortOrder: 3},
		{Label: "Unlimited Package", Price: eur(18), PackageType: constants.PackageTypeUnlimited, Audience: constants.AudienceNormal, SortOrder: 4},
		{Label: "20 Days Agency", Price: eur(20), DurationDays: intPtr(20), PackageType: constants.PackageTypeAgency, Audience: constants.AudienceAgency, SortOrder: 5},
		{Label: "3 Months Ensemble", Price: eur(450), DurationDays: intPtr(90), PackageType: constants.PackageType3Months, Audience: constants.AudienceEnsemble, SortOrder: 6},
		{Label: "6 Months Ensemble", Price: eur(600), DurationDays: intPtr(180), PackageType: constants.PackageType6Months, Audience: constants.AudienceEnsemble, SortOrder: 7},
		{Label: "12 Months Ensemble", Price: eur(900), DurationDays: intPtr(365), PackageType: constants.PackageType12Months, Audience: constants.AudienceEnsemble, SortOrder: 8},
	}
}

func defaultPromotions() []models.PromotionPackage {
	return []models.PromotionPackage{
		{Label: "Promote 7 Days", Price: eur(5), DurationDays: 7, PromotionType: constants.PromotionType7Days, SortOrder: 1},
		{Label: "Promote 15 Days", Price: eur(7), DurationDays: 15, PromotionType: constants.PromotionType15Days, SortOrder: 2},
		{Label: "Promote 30 Days", Price: eur(10), DurationDays: 30, PromotionType: constants.PromotionType30Days, SortOrder: 3},
	}
}

func seedPackages(tx *gorm.DB) (int, error) {
	var existing []string
	if err := tx.Model(&models.AnnouncementPackage{}).Pluck("package_type", &existing).Error; err != nil {
		return 0, err
	}
	seen := toSet(existing)
	created := 0
	for _, pkg := range defaultPackages() {
		if _, ok := seen[pkg.PackageType]; ok {
			continue
		}
		pkg.Currency = "EUR"
		pkg.Active = true
		if err := tx.Create(&pkg).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func seedPromotions(tx *gorm.DB) (int, error) {
	var existing []string
	if err := tx.Model(&models.PromotionPackage{}).Pluck("promotion_type", &existing).Error; err != nil {
		return 0, err
	}
	seen := toSet(existing)
	created := 0
	for _, promo := range defaultPromotions() {
		if _, ok := seen[promo.PromotionType]; ok {
			continue
		}
		promo.Currency = "EUR"
		promo.Active = true
		if err := tx.Create(&promo).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// seedDiscounts 默认折扣码，有效期从今天零点到一个月后当天结束
func seedDiscounts(tx *gorm.DB, now time.Time) (int, error) {
	validFrom := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := now.AddDate(0, 1, 0)
	validTo := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999000000, now.Location())

	percentage := models.NewMoneyPtr(decimal.NewFromInt(20))
	fixed := models.NewMoneyPtr(decimal.NewFromInt(2))
	desired := []models.Discount{
		{
			Code:        "PKG15OFF",
			Description: "20% off 15-day package",
			Percentage:  percentage,
			ValidFrom:   validFrom,
			ValidTo:     validTo,
			Applicability: models.DiscountApplicability{
				Kind:  constants.DiscountKindPackage,
				Types: models.StringArray{constants.PackageType15Days},
			},
			Active: true,
		},
		{
			Code:        "PROMO15SAVE",
			Description: "Save 2 EUR on 15-day promotion",
			FixedAmount: fixed,
			ValidFrom:   validFrom,
			ValidTo:     validTo,
			Applicability: models.DiscountApplicability{
				Kind:  constants.DiscountKindPromotion,
				Types: models.StringArray{constants.PromotionType15Days},
			},
			Active: true,
		},
	}

	var existing []string
	if err := tx.Model(&models.Discount{}).Pluck("code", &existing).Error; err != nil {
		return 0, err
	}
	seen := toSet(existing)
	created := 0
	for _, discount := range desired {
		if _, ok := seen[discount.Code]; ok {
			continue
		}
		if err := tx.Create(&discount).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
