package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/provider"
	"github.com/imobiliare-next/internal/repository"
	"github.com/imobiliare-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type adminEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		Total int64 `json:"total"`
	} `json:"pagination"`
}

func setupAdminHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Announcement{},
		&models.AnnouncementPackage{},
		&models.PromotionPackage{},
		&models.Discount{},
		&models.AnnouncementPayment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{SecretKey: "admin-handler-test-secret", ExpireHours: 1}
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true}

	adminRepo := repository.NewAdminRepository(db)
	h := New(&provider.Container{
		Config:      cfg,
		AdminRepo:   adminRepo,
		AuthService: service.NewAuthService(cfg, adminRepo, nil),
		CatalogAdminService: service.NewCatalogAdminService(
			repository.NewAnnouncementPackageRepository(db),
			repository.NewPromotionPackageRepository(db),
			repository.NewDiscountRepository(db),
			repository.NewAnnouncementPaymentRepository(db),
			nil,
		),
	})
	return h, db
}

func seedAdmin(t *testing.T, db *gorm.DB, username, password string) models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := models.Admin{Username: username, PasswordHash: string(hash)}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return admin
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) adminEnvelope {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp adminEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestAdminLogin(t *testing.T) {
	h, db := setupAdminHandlerTest(t)
	seedAdmin(t, db, "root", "Secret123")

	r := gin.New()
	r.POST("/admin/login", h.AdminLogin)

	resp := doJSON(t, r, http.MethodPost, "/admin/login", `{"username":"root","password":"wrong"}`)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, r, http.MethodPost, "/admin/login", `{"username":"root","password":"Secret123"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("expected login success, got %d %s", resp.StatusCode, resp.Msg)
	}
	var login LoginResponse
	if err := json.Unmarshal(resp.Data, &login); err != nil {
		t.Fatalf("unmarshal login failed: %v", err)
	}
	if login.Token == "" || login.ExpiresAt == "" {
		t.Fatalf("unexpected login response: %+v", login)
	}
}

func TestUpdateAdminPasswordPolicy(t *testing.T) {
	h, db := setupAdminHandlerTest(t)
	admin := seedAdmin(t, db, "ops", "Secret123")

	r := gin.New()
	r.PUT("/admin/password", func(c *gin.Context) {
		c.Set("admin_id", admin.ID)
		h.UpdateAdminPassword(c)
	})

	resp := doJSON(t, r, http.MethodPut, "/admin/password", `{"old_password":"nope","new_password":"Another123"}`)
	if resp.StatusCode != 400 || resp.Msg != "Current password is incorrect" {
		t.Fatalf("expected old password rejection, got %d %s", resp.StatusCode, resp.Msg)
	}

	resp = doJSON(t, r, http.MethodPut, "/admin/password", `{"old_password":"Secret123","new_password":"short"}`)
	if resp.StatusCode != 400 || !strings.Contains(resp.Msg, "at least 8") {
		t.Fatalf("expected policy rejection, got %d %s", resp.StatusCode, resp.Msg)
	}

	resp = doJSON(t, r, http.MethodPut, "/admin/password", `{"old_password":"Secret123","new_password":"Another123"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("expected success, got %d %s", resp.StatusCode, resp.Msg)
	}
	var stored models.Admin
	if err := db.First(&stored, admin.ID).Error; err != nil {
		t.Fatalf("reload admin failed: %v", err)
	}
	if stored.TokenVersion != 1 {
		t.Fatalf("expected token version bump, got %d", stored.TokenVersion)
	}
}

func TestPackageCRUD(t *testing.T) {
	h, _ := setupAdminHandlerTest(t)
	r := gin.New()
	r.GET("/admin/packages", h.GetAdminPackages)
	r.POST("/admin/packages", h.CreatePackage)
	r.PUT("/admin/packages/:id", h.UpdatePackage)
	r.DELETE("/admin/packages/:id", h.DeletePackage)

	resp := doJSON(t, r, http.MethodPost, "/admin/packages", `{"label":"Bad","price":"5","package_type":"weekly"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected invalid package type to fail, got %d", resp.StatusCode)
	}

	resp = doJSON(t, r, http.MethodPost, "/admin/packages", `{"label":"7 zile","price":"7","currency":"EUR","duration_days":7,"package_type":"7_days"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("create package failed: %d %s", resp.StatusCode, resp.Msg)
	}
	var created models.AnnouncementPackage
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("unmarshal package failed: %v", err)
	}
	if created.ID == 0 || created.Audience != "normal" || created.Price.String() != "7.00" {
		t.Fatalf("unexpected package: %+v", created)
	}

	path := fmt.Sprintf("/admin/packages/%d", created.ID)
	resp = doJSON(t, r, http.MethodPut, path, `{"label":"7 zile","price":"8.5","currency":"EUR","duration_days":7,"package_type":"7_days"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("update package failed: %d %s", resp.StatusCode, resp.Msg)
	}

	resp = doJSON(t, r, http.MethodGet, "/admin/packages?page=1&page_size=10", "")
	if resp.StatusCode != 0 || resp.Pagination.Total != 1 {
		t.Fatalf("unexpected list: %d total=%d", resp.StatusCode, resp.Pagination.Total)
	}

	resp = doJSON(t, r, http.MethodDelete, path, "")
	if resp.StatusCode != 0 {
		t.Fatalf("delete package failed: %d %s", resp.StatusCode, resp.Msg)
	}
	resp = doJSON(t, r, http.MethodDelete, path, "")
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestCreateDiscount(t *testing.T) {
	h, _ := setupAdminHandlerTest(t)
	r := gin.New()
	r.POST("/admin/discounts", h.CreateDiscount)
	r.GET("/admin/discounts", h.GetAdminDiscounts)

	body := `{"code":"SPRING","percentage":"20","valid_from":"2026-03-01T00:00:00Z","valid_to":"2026-03-31T23:59:59Z","kind":"package","types":["15_days"]}`
	resp := doJSON(t, r, http.MethodPost, "/admin/discounts", strings.Replace(body, "2026-03-01T00:00:00Z", "march", 1))
	if resp.StatusCode != 400 {
		t.Fatalf("expected bad time to fail, got %d", resp.StatusCode)
	}

	resp = doJSON(t, r, http.MethodPost, "/admin/discounts", body)
	if resp.StatusCode != 0 {
		t.Fatalf("create discount failed: %d %s", resp.StatusCode, resp.Msg)
	}

	resp = doJSON(t, r, http.MethodPost, "/admin/discounts", body)
	if resp.StatusCode != 409 {
		t.Fatalf("expected duplicate code conflict, got %d", resp.StatusCode)
	}

	resp = doJSON(t, r, http.MethodGet, "/admin/discounts?kind=package", "")
	if resp.StatusCode != 0 || resp.Pagination.Total != 1 {
		t.Fatalf("unexpected discount list: %d total=%d", resp.StatusCode, resp.Pagination.Total)
	}
}

func TestAsyncSweepWithoutQueue(t *testing.T) {
	h, _ := setupAdminHandlerTest(t)
	r := gin.New()
	r.POST("/admin/sweeps/cleanup", h.RunCleanupSweep)

	resp := doJSON(t, r, http.MethodPost, "/admin/sweeps/cleanup?async=true", "")
	if resp.StatusCode != 503 {
		t.Fatalf("expected queue unavailable, got %d", resp.StatusCode)
	}
}

func TestGetAdminPaymentsRejectsBadFilter(t *testing.T) {
	h, _ := setupAdminHandlerTest(t)
	r := gin.New()
	r.GET("/admin/payments", h.GetAdminPayments)

	resp := doJSON(t, r, http.MethodGet, "/admin/payments?created_from=yesterday", "")
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp = doJSON(t, r, http.MethodGet, "/admin/payments?only_promotions=true", "")
	if resp.StatusCode != 0 || resp.Pagination.Total != 0 {
		t.Fatalf("unexpected payments list: %d total=%d", resp.StatusCode, resp.Pagination.Total)
	}
}
