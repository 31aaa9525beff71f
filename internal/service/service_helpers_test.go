package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Agency{},
		&models.Announcement{},
		&models.AnnouncementPackage{},
		&models.PromotionPackage{},
		&models.Discount{},
		&models.AnnouncementPayment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

type testRepos struct {
	announcements *repository.GormAnnouncementRepository
	payments      *repository.GormAnnouncementPaymentRepository
	packages      *repository.GormAnnouncementPackageRepository
	promotions    *repository.GormPromotionPackageRepository
	discounts     *repository.GormDiscountRepository
	users         *repository.GormUserRepository
	admins        *repository.GormAdminRepository
}

func newTestRepos(db *gorm.DB) testRepos {
	return testRepos{
		announcements: repository.NewAnnouncementRepository(db),
		payments:      repository.NewAnnouncementPaymentRepository(db),
		packages:      repository.NewAnnouncementPackageRepository(db),
		promotions:    repository.NewPromotionPackageRepository(db),
		discounts:     repository.NewDiscountRepository(db),
		users:         repository.NewUserRepository(db),
		admins:        repository.NewAdminRepository(db),
	}
}

func money(raw string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}

func moneyPtr(raw string) *models.Money {
	m := money(raw)
	return &m
}

func intPtr(v int) *int {
	return &v
}

func createTestUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{
		FirebaseUID: "uid-" + email,
		Email:       email,
		FirstName:   "Ana",
		Status:      constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createServiceAnnouncement(t *testing.T, db *gorm.DB, userID uint, status string, promoted bool, createdAt time.Time) models.Announcement {
	t.Helper()
	row := models.Announcement{
		AnnouncementType: constants.AnnouncementTypeApartament,
		TransactionType:  "sale",
		Title:            fmt.Sprintf("Apartament %d", createdAt.UnixNano()),
		City:             "Cluj-Napoca",
		Price:            money("95000"),
		Currency:         "EUR",
		Rooms:            2,
		Surface:          52,
		Status:           status,
		IsPromoted:       promoted,
		UserID:           userID,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create announcement failed: %v", err)
	}
	return row
}

func createServicePackage(t *testing.T, db *gorm.DB, packageType string, price string, durationDays *int) models.AnnouncementPackage {
	t.Helper()
	pkg := models.AnnouncementPackage{
		Label:        packageType,
		Price:        money(price),
		Currency:     "EUR",
		DurationDays: durationDays,
		PackageType:  packageType,
		Audience:     constants.AudienceNormal,
		Active:       true,
	}
	if err := db.Create(&pkg).Error; err != nil {
		t.Fatalf("create package failed: %v", err)
	}
	return pkg
}

func createServicePromotion(t *testing.T, db *gorm.DB, promotionType string, price string, durationDays int) models.PromotionPackage {
	t.Helper()
	promotion := models.PromotionPackage{
		Label:         promotionType,
		Price:         money(price),
		Currency:      "EUR",
		DurationDays:  durationDays,
		PromotionType: promotionType,
		Active:        true,
	}
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	return promotion
}

func createServiceDiscount(t *testing.T, db *gorm.DB, discount models.Discount) models.Discount {
	t.Helper()
	discount.Active = true
	if err := db.Create(&discount).Error; err != nil {
		t.Fatalf("create discount %s failed: %v", discount.Code, err)
	}
	return discount
}

func createServicePayment(t *testing.T, db *gorm.DB, payment models.AnnouncementPayment) models.AnnouncementPayment {
	t.Helper()
	if payment.Currency == "" {
		payment.Currency = "EUR"
	}
	if payment.Provider == "" {
		payment.Provider = constants.PaymentProviderStripe
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = payment.StartDate
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return payment
}

type notification struct {
	Kind     string
	Email    string
	Name     string
	Link     string
	DaysLeft int
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []notification
	failOn map[string]bool
}

func (n *fakeNotifier) record(item notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn[item.Email] {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, item)
	return nil
}

func (n *fakeNotifier) SendExpirationReminder(_ context.Context, email, name, link string, daysLeft int) error {
	return n.record(notification{Kind: "reminder", Email: email, Name: name, Link: link, DaysLeft: daysLeft})
}

func (n *fakeNotifier) SendExpiredNotice(_ context.Context, email, name, link string) error {
	return n.record(notification{Kind: "expired", Email: email, Name: name, Link: link})
}

func (n *fakeNotifier) SendAnnouncementConfirmation(_ context.Context, email, name, link string) error {
	return n.record(notification{Kind: "confirmation", Email: email, Name: name, Link: link})
}

func (n *fakeNotifier) byKind(kind string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]notification, 0)
	for _, item := range n.sent {
		if item.Kind == kind {
			result = append(result, item)
		}
	}
	return result
}

type fakeMediaStore struct {
	resources      map[string][]string
	listErr        error
	deleted        []string
	deletedFolders []string
}

func mediaKey(folder, kind string) string {
	return folder + "|" + kind
}

func (m *fakeMediaStore) ListResourcesByFolder(_ context.Context, folder, kind string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.resources[mediaKey(folder, kind)], nil
}

func (m *fakeMediaStore) DeleteResources(_ context.Context, ids []string, _ string) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

func (m *fakeMediaStore) DeleteFolder(_ context.Context, folder string) error {
	m.deletedFolders = append(m.deletedFolders, folder)
	return nil
}
