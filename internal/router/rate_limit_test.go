package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"username":" Ops.Admin ","password":"x"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "10.0.0.7:5678"

	key := KeyByIPAndJSONField("username")(c)
	if key != "ops.admin|10.0.0.7" {
		t.Fatalf("key want ops.admin|10.0.0.7 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Ops.Admin") {
		t.Fatalf("request body should be restored for the login handler")
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`not json`))
	c.Request.RemoteAddr = "10.0.0.8:1234"

	if key := KeyByIPAndJSONField("username")(c); key != "10.0.0.8" {
		t.Fatalf("key want 10.0.0.8 got %s", key)
	}
}

func TestRateLimitMiddlewarePassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rules := map[string]RateLimitRule{
		"no client":   {WindowSeconds: 60, MaxRequests: 1, BlockSeconds: 300},
		"zero window": {MaxRequests: 1},
	}
	for name, rule := range rules {
		r := gin.New()
		r.Use(RateLimitMiddleware(nil, rule, KeyByIP))
		r.POST("/api/v1/payments/webhook/stripe", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/stripe", nil))
			if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
				t.Fatalf("%s: request %d should pass, got %d %s", name, i, w.Code, w.Body.String())
			}
		}
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint8", input: uint8(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
