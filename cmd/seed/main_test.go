package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:seed_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AnnouncementPackage{}, &models.PromotionPackage{}, &models.Discount{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	db := setupSeedTestDB(t)
	now := time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)

	for round := 0; round < 2; round++ {
		packages, err := seedPackages(db)
		if err != nil {
			t.Fatalf("seed packages failed: %v", err)
		}
		promotions, err := seedPromotions(db)
		if err != nil {
			t.Fatalf("seed promotions failed: %v", err)
		}
		discounts, err := seedDiscounts(db, now)
		if err != nil {
			t.Fatalf("seed discounts failed: %v", err)
		}
		if round == 0 && (packages != 8 || promotions != 3 || discounts != 2) {
			t.Fatalf("unexpected first round counts: %d %d %d", packages, promotions, discounts)
		}
		if round == 1 && (packages != 0 || promotions != 0 || discounts != 0) {
			t.Fatalf("expected second round to insert nothing: %d %d %d", packages, promotions, discounts)
		}
	}

	var unlimited models.AnnouncementPackage
	if err := db.Where("package_type = ?", constants.PackageTypeUnlimited).First(&unlimited).Error; err != nil {
		t.Fatalf("load unlimited package failed: %v", err)
	}
	if unlimited.DurationDays != nil {
		t.Fatalf("unlimited package must not expire")
	}

	var discount models.Discount
	if err := db.Where("code = ?", "PKG15OFF").First(&discount).Error; err != nil {
		t.Fatalf("load discount failed: %v", err)
	}
	if !discount.ValidFrom.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected valid from: %v", discount.ValidFrom)
	}
	// 1 月 31 日加一个月按 Go 规则归一化到 3 月 2 日
	if discount.ValidTo.Month() != time.March || discount.ValidTo.Day() != 2 {
		t.Fatalf("unexpected valid to: %v", discount.ValidTo)
	}
	if !discount.Applicability.Covers(constants.DiscountKindPackage, constants.PackageType15Days) {
		t.Fatalf("expected discount to cover 15 day package")
	}
}
