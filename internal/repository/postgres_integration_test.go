//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.AnnouncementPayment{},
		&models.Announcement{},
		&models.Discount{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.Announcement{},
		&models.AnnouncementPayment{},
		&models.Discount{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresListRankedNullsLast(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewAnnouncementRepository(db)
	base := time.Now().UTC().Truncate(time.Second)

	noPayment := createTestAnnouncement(t, db, "Apartament Gheorgheni", true, base.Add(time.Hour))
	withPayment := createTestAnnouncement(t, db, "Apartament Zorilor", true, base)
	plain := createTestAnnouncement(t, db, "Apartament Manastur", false, base.Add(2*time.Hour))
	createTestPromotionPayment(t, db, withPayment.ID, base)

	rows, total, err := repo.ListRanked(ListingFilter{Page: 1, PageSize: 10, Search: "APARTAMENT"})
	if err != nil {
		t.Fatalf("list ranked failed: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("ranked want 3 got total=%d len=%d", total, len(rows))
	}
	want := []uint{withPayment.ID, noPayment.ID, plain.ID}
	for idx, id := range want {
		if rows[idx].ID != id {
			t.Fatalf("rank %d want %d got %d", idx, id, rows[idx].ID)
		}
	}
}

func TestPostgresDiscountCandidates(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDiscountRepository(db)
	now := time.Now().UTC().Truncate(time.Second)
	pct := models.NewMoneyPtr(decimal.NewFromInt(20))

	discount := &models.Discount{
		Code:       "PG20",
		Percentage: pct,
		ValidFrom:  now.Add(-time.Hour),
		ValidTo:    now.Add(time.Hour),
		Active:     true,
		Applicability: models.DiscountApplicability{
			Kind:  constants.DiscountKindPromotion,
			Types: models.StringArray{constants.PromotionType7Days},
		},
	}
	if err := repo.Create(discount); err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	rows, err := repo.ListCandidates(constants.DiscountKindPromotion, now)
	if err != nil {
		t.Fatalf("list candidates failed: %v", err)
	}
	if len(rows) != 1 || rows[0].AllowedUserIDs != nil {
		t.Fatalf("expected one unrestricted candidate, got %+v", rows)
	}
}
