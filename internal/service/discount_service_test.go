package service

import (
	"testing"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestReduce(t *testing.T) {
	price := decimal.NewFromInt(15)
	tests := []struct {
		name     string
		discount *models.Discount
		want     string
	}{
		{name: "no_discount", discount: nil, want: "15"},
		{name: "percentage", discount: &models.Discount{Percentage: moneyPtr("20")}, want: "12"},
		{name: "fixed", discount: &models.Discount{FixedAmount: moneyPtr("4.5")}, want: "10.5"},
		{name: "fixed_clamped", discount: &models.Discount{FixedAmount: moneyPtr("40")}, want: "0"},
		{name: "percentage_wins", discount: &models.Discount{Percentage: moneyPtr("10"), FixedAmount: moneyPtr("14")}, want: "13.5"},
		{name: "full_percentage", discount: &models.Discount{Percentage: moneyPtr("100")}, want: "0"},
		{name: "empty_discount", discount: &models.Discount{}, want: "15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(price, tt.discount)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("Reduce() = %s, want %s", got, tt.want)
			}
			if got.IsNegative() {
				t.Fatalf("Reduce() returned negative price %s", got)
			}
		})
	}
}

func TestFindBestDiscount(t *testing.T) {
	db := setupServiceTestDB(t)
	repos := newTestRepos(db)
	svc := NewDiscountService(repos.discounts)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	base := func(code string, createdAt time.Time) models.Discount {
		return models.Discount{
			Code:       code,
			Percentage: moneyPtr("10"),
			ValidFrom:  now.Add(-24 * time.Hour),
			ValidTo:    now.Add(24 * time.Hour),
			Applicability: models.DiscountApplicability{
				Kind:  constants.DiscountKindPackage,
				Types: models.StringArray{constants.PackageType7Days, constants.PackageType15Days},
			},
			CreatedAt: createdAt,
		}
	}

	older := base("OLDER", now.Add(-3*time.Hour))
	createServiceDiscount(t, db, older)
	newest := base("VIP", now.Add(-time.Hour))
	newest.AllowedUserIDs = models.UintSet{7}
	createServiceDiscount(t, db, newest)
	otherType := base("MONTHS", now)
	otherType.Applicability.Types = models.StringArray{constants.PackageType3Months}
	createServiceDiscount(t, db, otherType)
	future := base("FUTURE", now)
	future.ValidFrom = now.Add(time.Minute)
	createServiceDiscount(t, db, future)
	promo := base("PROMO", now)
	promo.Applicability = models.DiscountApplicability{Kind: constants.DiscountKindPromotion, Types: models.StringArray{constants.PackageType7Days}}
	createServiceDiscount(t, db, promo)

	got, err := svc.FindBestDiscount(7, constants.DiscountKindPackage, constants.PackageType7Days, now)
	if err != nil {
		t.Fatalf("find best discount failed: %v", err)
	}
	if got == nil || got.Code != "VIP" {
		t.Fatalf("expected newest allowed discount VIP, got %+v", got)
	}

	got, err = svc.FindBestDiscount(8, constants.DiscountKindPackage, constants.PackageType7Days, now)
	if err != nil {
		t.Fatalf("find best discount failed: %v", err)
	}
	if got == nil || got.Code != "OLDER" {
		t.Fatalf("user outside allow list should fall back to OLDER, got %+v", got)
	}

	got, err = svc.FindBestDiscount(8, constants.DiscountKindPackage, constants.PackageTypeUnlimited, now)
	if err != nil {
		t.Fatalf("find best discount failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no discount for uncovered type, got %s", got.Code)
	}

	edge, err := svc.FindBestDiscount(8, constants.DiscountKindPackage, constants.PackageType15Days, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("find best discount failed: %v", err)
	}
	if edge == nil {
		t.Fatalf("valid_to should be inclusive")
	}
}

func TestDiscountGetByCodeUnknown(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewDiscountService(newTestRepos(db).discounts)
	got, err := svc.GetByCode("  NOPE ")
	if err != nil || got != nil {
		t.Fatalf("unknown code should return nil,nil: %+v %v", got, err)
	}
}
