package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func signedHeaders(t *testing.T, secret string, now time.Time, body []byte) map[string]string {
	t.Helper()
	sig := computeSignature(secret, now.Unix(), body)
	return map[string]string{
		"stripe-signature": "t=" + decimal.NewFromInt(now.Unix()).String() + ",v1=" + sig,
	}
}

func TestNormalizeConfigDefaults(t *testing.T) {
	client := NewClient(Config{
		SecretKey:          " sk_test_123 ",
		SuccessURL:         "https://example.com/success?session={CHECKOUT_SESSION_ID}",
		CancelURL:          "https://example.com/cancel",
		PaymentMethodTypes: []string{" Card ", ""},
	})
	cfg := client.Config()
	if cfg.SecretKey != "sk_test_123" {
		t.Fatalf("unexpected secret key: %s", cfg.SecretKey)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected default api base url: %s", cfg.APIBaseURL)
	}
	if cfg.WebhookToleranceSeconds != defaultWebhookToleranceS {
		t.Fatalf("unexpected tolerance: %d", cfg.WebhookToleranceSeconds)
	}
	if len(cfg.PaymentMethodTypes) != 1 || cfg.PaymentMethodTypes[0] != "card" {
		t.Fatalf("unexpected payment method types: %v", cfg.PaymentMethodTypes)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate config failed: %v", err)
	}
}

func TestValidateConfigRequiresSecret(t *testing.T) {
	err := ValidateConfig(NewClient(Config{SuccessURL: "https://a.b/s", CancelURL: "https://a.b/c"}).Config())
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
}

func TestCreateCheckoutSessionSendsMetadata(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "cs_test_1",
			"url":    "https://checkout.stripe.com/c/pay/cs_test_1",
			"status": "open",
		})
	}))
	defer server.Close()

	client := NewClient(Config{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://example.com/announcements/{ANNOUNCEMENT_ID}?paid=1",
		CancelURL:  "https://example.com/announcements/{ANNOUNCEMENT_ID}",
		APIBaseURL: server.URL,
	})
	promotionID := uint(3)
	session, err := client.CreateCheckoutSession(context.Background(), CheckoutInput{
		AnnouncementID: 42,
		PackageID:      7,
		PromotionID:    &promotionID,
		DiscountCode:   "SPRING",
		OriginalAmount: decimal.RequireFromString("30"),
		Amount:         decimal.RequireFromString("24.50"),
		Currency:       "eur",
	})
	if err != nil {
		t.Fatalf("create checkout session failed: %v", err)
	}
	if session.SessionID != "cs_test_1" {
		t.Fatalf("unexpected session id: %s", session.SessionID)
	}
	if got := form.Get("line_items[0][price_data][unit_amount]"); got != "2450" {
		t.Fatalf("unexpected unit amount: %s", got)
	}
	if got := form.Get("line_items[0][price_data][currency]"); got != "eur" {
		t.Fatalf("unexpected currency: %s", got)
	}
	if got := form.Get("success_url"); got != "https://example.com/announcements/42?paid=1" {
		t.Fatalf("unexpected success url: %s", got)
	}
	if got := form.Get("metadata[announcement_id]"); got != "42" {
		t.Fatalf("unexpected announcement metadata: %s", got)
	}
	if got := form.Get("metadata[promotion_id]"); got != "3" {
		t.Fatalf("unexpected promotion metadata: %s", got)
	}
	if got := form.Get("metadata[discount_code]"); got != "SPRING" {
		t.Fatalf("unexpected discount metadata: %s", got)
	}
	if got := form.Get("metadata[original_amount]"); got != "30.00" {
		t.Fatalf("unexpected original amount metadata: %s", got)
	}
	if _, ok := form["metadata[promotion_discount_code]"]; ok {
		t.Fatalf("empty promotion discount code should be omitted")
	}
}

func TestCreateCheckoutSessionRejectsZeroAmount(t *testing.T) {
	client := NewClient(Config{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://example.com/s",
		CancelURL:  "https://example.com/c",
	})
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutInput{
		AnnouncementID: 1,
		PackageID:      1,
		Amount:         decimal.Zero,
		Currency:       "EUR",
	})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid for zero amount, got %v", err)
	}
}

func TestVerifyAndParseWebhookCheckoutCompleted(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":         "checkout.session",
				"id":             "cs_test_123",
				"payment_status": "paid",
				"currency":       "eur",
				"amount_total":   2450,
				"payment_intent": "pi_test_1",
				"metadata": map[string]interface{}{
					"announcement_id":         "42",
					"package_id":              "7",
					"promotion_id":            "3",
					"promotion_discount_code": "PROMO10",
					"original_amount":         "30.00",
				},
			},
		},
	}
	body, _ := json.Marshal(payload)

	event, err := VerifyAndParseWebhook(cfg, signedHeaders(t, cfg.WebhookSecret, now, body), body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if event.Status != "success" || event.Confirmed == nil {
		t.Fatalf("expected confirmed payment, got %+v", event)
	}
	confirmed := event.Confirmed
	if confirmed.AnnouncementID != 42 || confirmed.PackageID != 7 {
		t.Fatalf("unexpected ids: %+v", confirmed)
	}
	if confirmed.PromotionID == nil || *confirmed.PromotionID != 3 {
		t.Fatalf("unexpected promotion id: %v", confirmed.PromotionID)
	}
	if confirmed.PromotionDiscountCode != "PROMO10" || confirmed.DiscountCode != "" {
		t.Fatalf("unexpected discount codes: %+v", confirmed)
	}
	if !confirmed.Amount.Equal(decimal.RequireFromString("24.50")) {
		t.Fatalf("unexpected amount: %s", confirmed.Amount)
	}
	if confirmed.OriginalAmount == nil || !confirmed.OriginalAmount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected original amount: %v", confirmed.OriginalAmount)
	}
	if confirmed.Currency != "EUR" {
		t.Fatalf("unexpected currency: %s", confirmed.Currency)
	}
	if confirmed.ExternalTxnID() != "cs_test_123" {
		t.Fatalf("unexpected external txn id: %s", confirmed.ExternalTxnID())
	}
}

func TestVerifyAndParseWebhookIgnoresNonSuccessEvents(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_test_2",
		"type": "checkout.session.expired",
		"data": map[string]interface{}{
			"object": map[string]interface{}{"object": "checkout.session", "id": "cs_test_2"},
		},
	})

	event, err := VerifyAndParseWebhook(cfg, signedHeaders(t, cfg.WebhookSecret, now, body), body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if event.Status != "expired" || event.Confirmed != nil {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestVerifyAndParseWebhookMissingMetadata(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_test_3",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":       "checkout.session",
				"id":           "cs_test_3",
				"currency":     "eur",
				"amount_total": 100,
			},
		},
	})

	_, err := VerifyAndParseWebhook(cfg, signedHeaders(t, cfg.WebhookSecret, now, body), body, now)
	if !errors.Is(err, ErrMetadataInvalid) {
		t.Fatalf("expected metadata invalid, got %v", err)
	}
}

func TestVerifyAndParseWebhookInvalidSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body, _ := json.Marshal(map[string]interface{}{"id": "evt_test_1", "type": "checkout.session.completed"})
	headers := map[string]string{"Stripe-Signature": "t=1760000000,v1=invalid-signature"}

	_, err := VerifyAndParseWebhook(cfg, headers, body, now)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifyAndParseWebhookOutsideTolerance(t *testing.T) {
	signedAt := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body := []byte(`{"id":"evt","type":"checkout.session.completed","data":{"object":{"object":"checkout.session"}}}`)

	_, err := VerifyAndParseWebhook(cfg, signedHeaders(t, cfg.WebhookSecret, signedAt, body), body, signedAt.Add(10*time.Minute))
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected tolerance error, got %v", err)
	}
}

func TestMinorAmountRoundTrip(t *testing.T) {
	minor, err := toMinorAmount(decimal.RequireFromString("12.88"), "EUR")
	if err != nil || minor != 1288 {
		t.Fatalf("unexpected minor amount: %d %v", minor, err)
	}
	if _, err := toMinorAmount(decimal.RequireFromString("1.001"), "EUR"); err == nil {
		t.Fatalf("expected precision error")
	}
	if got := fromMinorAmount(500, "JPY"); !got.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected zero decimal amount: %s", got)
	}
}
