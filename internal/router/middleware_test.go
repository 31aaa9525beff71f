package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/imobiliare-next/internal/cache"
	"github.com/imobiliare-next/internal/service"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

type fakeAdminResolver struct {
	claims *service.JWTClaims
	state  *cache.AdminAuthState
}

func (f fakeAdminResolver) ParseJWT(tokenString string) (*service.JWTClaims, error) {
	if tokenString != "good" {
		return nil, errors.New("bad token")
	}
	return f.claims, nil
}

func (f fakeAdminResolver) ResolveAdminState(_ context.Context, _ uint) (*cache.AdminAuthState, error) {
	return f.state, nil
}

type fakeUserResolver struct {
	err error
}

func (f fakeUserResolver) ParseUserJWT(_ string) (*service.UserJWTClaims, error) {
	return &service.UserJWTClaims{UserID: 42, Email: "claims@imo.ro"}, nil
}

func (f fakeUserResolver) ResolveUserState(_ context.Context, userID uint) (*cache.UserAuthState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &cache.UserAuthState{UserID: userID, Email: "state@imo.ro", Status: "active"}, nil
}

func serveWithAuth(t *testing.T, middleware gin.HandlerFunc, token string) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status_code":    0,
			"admin_id":       c.GetUint("admin_id"),
			"admin_is_super": c.GetBool("admin_is_super"),
			"user_id":        c.GetUint("user_id"),
			"user_email":     c.GetString("user_email"),
		})
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return int(resp["status_code"].(float64)), resp
}

func TestJWTAuthMiddlewareTokenVersion(t *testing.T) {
	resolver := fakeAdminResolver{
		claims: &service.JWTClaims{AdminID: 3, Username: "ops", TokenVersion: 1},
		state:  &cache.AdminAuthState{AdminID: 3, TokenVersion: 1, IsSuper: true},
	}

	code, resp := serveWithAuth(t, JWTAuthMiddleware("secret", resolver), "good")
	if code != 0 || resp["admin_id"].(float64) != 3 || resp["admin_is_super"] != true {
		t.Fatalf("expected authenticated admin, got %v", resp)
	}

	if code, _ := serveWithAuth(t, JWTAuthMiddleware("secret", resolver), "forged"); code != 401 {
		t.Fatalf("forged token want 401 got %d", code)
	}
	if code, _ := serveWithAuth(t, JWTAuthMiddleware("secret", resolver), ""); code != 401 {
		t.Fatalf("missing header want 401 got %d", code)
	}

	resolver.state = &cache.AdminAuthState{AdminID: 3, TokenVersion: 2}
	if code, _ := serveWithAuth(t, JWTAuthMiddleware("secret", resolver), "good"); code != 401 {
		t.Fatalf("revoked token want 401 got %d", code)
	}
}

func TestUserJWTAuthMiddleware(t *testing.T) {
	code, resp := serveWithAuth(t, UserJWTAuthMiddleware("secret", fakeUserResolver{}), "any")
	if code != 0 || resp["user_id"].(float64) != 42 || resp["user_email"] != "state@imo.ro" {
		t.Fatalf("expected authenticated user, got %v", resp)
	}

	code, resp = serveWithAuth(t, UserJWTAuthMiddleware("secret", fakeUserResolver{err: service.ErrUserDisabled}), "any")
	if code != 401 || resp["msg"] != "Account is disabled" {
		t.Fatalf("disabled user want 401, got %v", resp)
	}
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"":                         "system",
		"/admin/packages/:id":      "packages",
		"/admin/authz/roles":       "authz",
		"/admin/sweeps/expiration": "sweeps",
		"/public/announcements":    "public",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("module for %q want %s got %s", object, want, got)
		}
	}
}
