package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
	ErrMetadataInvalid  = errors.New("stripe metadata invalid")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultTimeout           = 12 * time.Second
	defaultWebhookToleranceS = 300
)

// 元数据键，Checkout 创建与 Webhook 解析共用
const (
	metaAnnouncementID        = "announcement_id"
	metaPackageID             = "package_id"
	metaPromotionID           = "promotion_id"
	metaDiscountCode          = "discount_code"
	metaPromotionDiscountCode = "promotion_discount_code"
	metaOriginalAmount        = "original_amount"
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {},
	"CLP": {},
	"DJF": {},
	"GNF": {},
	"JPY": {},
	"KMF": {},
	"KRW": {},
	"MGA": {},
	"PYG": {},
	"RWF": {},
	"UGX": {},
	"VND": {},
	"VUV": {},
	"XAF": {},
	"XOF": {},
	"XPF": {},
}

// Config Stripe 收款配置。
type Config struct {
	SecretKey               string
	PublishableKey          string
	WebhookSecret           string
	SuccessURL              string
	CancelURL               string
	APIBaseURL              string
	WebhookToleranceSeconds int64
	PaymentMethodTypes      []string
}

// Client Stripe 客户端。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建 Stripe 客户端。
func NewClient(cfg Config) *Client {
	cfg.normalize()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Config 返回规范化后的配置副本。
func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// CheckoutInput 创建 Checkout Session 输入。
type CheckoutInput struct {
	AnnouncementID        uint
	PackageID             uint
	PromotionID           *uint
	DiscountCode          string
	PromotionDiscountCode string
	OriginalAmount        decimal.Decimal
	Amount                decimal.Decimal
	Currency              string
	Description           string
	CustomerEmail         string
}

// CheckoutSession 创建结果。
type CheckoutSession struct {
	SessionID       string
	PaymentIntentID string
	URL             string
	Status          string
}

// ConfirmedPayment 已确认支付（来自 checkout.session.completed 元数据）。
type ConfirmedPayment struct {
	EventID               string
	SessionID             string
	PaymentIntentID       string
	AnnouncementID        uint
	PackageID             uint
	PromotionID           *uint
	DiscountCode          string
	PromotionDiscountCode string
	OriginalAmount        *decimal.Decimal
	Amount                decimal.Decimal
	Currency              string
}

// ExternalTxnID 幂等键：优先 session id，其次 event id。
func (p *ConfirmedPayment) ExternalTxnID() string {
	if p == nil {
		return ""
	}
	if p.SessionID != "" {
		return p.SessionID
	}
	return p.EventID
}

// WebhookEvent Webhook 解析结果，非成功事件 Confirmed 为空。
type WebhookEvent struct {
	EventID   string
	EventType string
	Status    string
	Confirmed *ConfirmedPayment
}

// ValidateConfig 校验 Checkout 所需配置。
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SuccessURL) == "" {
		return fmt.Errorf("%w: success_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.CancelURL) == "" {
		return fmt.Errorf("%w: cancel_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.APIBaseURL)); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(sanitizeURLForValidation(cfg.SuccessURL)); err != nil {
		return fmt.Errorf("%w: success_url is invalid", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(sanitizeURLForValidation(cfg.CancelURL)); err != nil {
		return fmt.Errorf("%w: cancel_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// CreateCheckoutSession 创建 Stripe Checkout Session，元数据携带套餐与折扣信息。
func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: client is nil", ErrConfigInvalid)
	}
	if err := ValidateConfig(c.cfg); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if input.AnnouncementID == 0 || input.PackageID == 0 {
		return nil, fmt.Errorf("%w: announcement_id and package_id are required", ErrMetadataInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrConfigInvalid)
	}
	minorAmount, err := toMinorAmount(input.Amount, currency)
	if err != nil {
		return nil, err
	}

	announcementID := strconv.FormatUint(uint64(input.AnnouncementID), 10)
	subject := strings.TrimSpace(input.Description)
	if subject == "" {
		subject = "Announcement #" + announcementID
	}
	successURL := strings.ReplaceAll(c.cfg.SuccessURL, "{ANNOUNCEMENT_ID}", announcementID)
	cancelURL := strings.ReplaceAll(c.cfg.CancelURL, "{ANNOUNCEMENT_ID}", announcementID)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", announcementID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(minorAmount, 10))
	form.Set("line_items[0][price_data][product_data][name]", subject)
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		form.Set("customer_email", email)
	}
	for key, value := range checkoutMetadata(input) {
		form.Set("metadata["+key+"]", value)
		form.Set("payment_intent_data[metadata]["+key+"]", value)
	}
	for _, pmType := range c.cfg.PaymentMethodTypes {
		form.Add("payment_method_types[]", pmType)
	}

	respBody, statusCode, err := c.doFormRequest(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create checkout session status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &CheckoutSession{
		SessionID:       strings.TrimSpace(readString(raw, "id")),
		URL:             strings.TrimSpace(readString(raw, "url")),
		Status:          strings.TrimSpace(readString(raw, "status")),
		PaymentIntentID: strings.TrimSpace(readPaymentIntentID(raw)),
	}
	if result.SessionID == "" || result.URL == "" {
		return nil, fmt.Errorf("%w: missing session id or url", ErrResponseInvalid)
	}
	return result, nil
}

func checkoutMetadata(input CheckoutInput) map[string]string {
	metadata := map[string]string{
		metaAnnouncementID: strconv.FormatUint(uint64(input.AnnouncementID), 10),
		metaPackageID:      strconv.FormatUint(uint64(input.PackageID), 10),
		metaOriginalAmount: input.OriginalAmount.StringFixed(2),
	}
	if input.PromotionID != nil && *input.PromotionID != 0 {
		metadata[metaPromotionID] = strconv.FormatUint(uint64(*input.PromotionID), 10)
	}
	if code := strings.TrimSpace(input.DiscountCode); code != "" {
		metadata[metaDiscountCode] = code
	}
	if code := strings.TrimSpace(input.PromotionDiscountCode); code != "" {
		metadata[metaPromotionDiscountCode] = code
	}
	return metadata
}

// VerifyAndParseWebhook 校验签名并解析 Stripe webhook。
func (c *Client) VerifyAndParseWebhook(headers map[string]string, body []byte, now time.Time) (*WebhookEvent, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: client is nil", ErrConfigInvalid)
	}
	return VerifyAndParseWebhook(c.cfg, headers, body, now)
}

// VerifyAndParseWebhook 校验签名并解析 Stripe webhook。
func VerifyAndParseWebhook(cfg Config, headers map[string]string, body []byte, now time.Time) (*WebhookEvent, error) {
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}

	signatureHeader := getHeaderValue(headers, "Stripe-Signature")
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	if cfg.WebhookToleranceSeconds > 0 {
		delta := math.Abs(float64(now.Unix() - timestamp))
		if delta > float64(cfg.WebhookToleranceSeconds) {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
		}
	}

	expected := computeSignature(cfg.WebhookSecret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	eventRaw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	eventType := strings.TrimSpace(readString(eventRaw, "type"))
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	dataRaw := readMap(eventRaw, "data")
	objectRaw := readMap(dataRaw, "object")
	if objectRaw == nil {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}

	event := &WebhookEvent{
		EventID:   strings.TrimSpace(readString(eventRaw, "id")),
		EventType: eventType,
	}
	if status, ok := mapEventTypeStatus(eventType); ok {
		event.Status = status
	} else {
		event.Status = mapCheckoutSessionStatus(readString(objectRaw, "payment_status"), readString(objectRaw, "status"))
	}
	if event.Status != "success" || strings.TrimSpace(readString(objectRaw, "object")) != "checkout.session" {
		return event, nil
	}

	confirmed, err := parseConfirmedPayment(event.EventID, objectRaw)
	if err != nil {
		return nil, err
	}
	event.Confirmed = confirmed
	return event, nil
}

func parseConfirmedPayment(eventID string, objectRaw map[string]interface{}) (*ConfirmedPayment, error) {
	metadata := readMap(objectRaw, "metadata")
	confirmed := &ConfirmedPayment{
		EventID:               eventID,
		SessionID:             strings.TrimSpace(readString(objectRaw, "id")),
		PaymentIntentID:       strings.TrimSpace(readPaymentIntentID(objectRaw)),
		AnnouncementID:        readUint(metadata, metaAnnouncementID),
		PackageID:             readUint(metadata, metaPackageID),
		DiscountCode:          readString(metadata, metaDiscountCode),
		PromotionDiscountCode: readString(metadata, metaPromotionDiscountCode),
		Currency:              strings.ToUpper(strings.TrimSpace(readString(objectRaw, "currency"))),
	}
	if confirmed.AnnouncementID == 0 {
		// 兼容旧版 Checkout 仅写入 client_reference_id
		confirmed.AnnouncementID = readUint(objectRaw, "client_reference_id")
	}
	if confirmed.AnnouncementID == 0 || confirmed.PackageID == 0 {
		return nil, fmt.Errorf("%w: announcement_id and package_id are required", ErrMetadataInvalid)
	}
	if promotionID := readUint(metadata, metaPromotionID); promotionID != 0 {
		confirmed.PromotionID = &promotionID
	}
	if raw := readString(metadata, metaOriginalAmount); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: original_amount is invalid", ErrMetadataInvalid)
		}
		confirmed.OriginalAmount = &parsed
	}
	if confirmed.Currency == "" {
		return nil, fmt.Errorf("%w: currency is missing", ErrResponseInvalid)
	}
	confirmed.Amount = fromMinorAmount(readInt64(objectRaw, "amount_total"), confirmed.Currency)
	return confirmed, nil
}

func mapEventTypeStatus(eventType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		return "success", true
	case "checkout.session.expired":
		return "expired", true
	case "checkout.session.async_payment_failed", "payment_intent.payment_failed", "payment_intent.canceled":
		return "failed", true
	case "payment_intent.processing":
		return "pending", true
	default:
		return "", false
	}
}

func mapCheckoutSessionStatus(paymentStatus string, sessionStatus string) string {
	paymentStatus = strings.ToLower(strings.TrimSpace(paymentStatus))
	sessionStatus = strings.ToLower(strings.TrimSpace(sessionStatus))
	if paymentStatus == "paid" {
		return "success"
	}
	if sessionStatus == "expired" {
		return "expired"
	}
	if sessionStatus == "complete" && paymentStatus == "no_payment_required" {
		return "success"
	}
	return "pending"
}

func sanitizeURLForValidation(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return trimmed
	}
	trimmed = strings.ReplaceAll(trimmed, "{CHECKOUT_SESSION_ID}", "cs_test_placeholder")
	return strings.ReplaceAll(trimmed, "{ANNOUNCEMENT_ID}", "1")
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.PublishableKey = strings.TrimSpace(c.PublishableKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.SuccessURL = strings.TrimSpace(c.SuccessURL)
	c.CancelURL = strings.TrimSpace(c.CancelURL)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
	normalized := make([]string, 0, len(c.PaymentMethodTypes))
	for _, item := range c.PaymentMethodTypes {
		trimmed := strings.ToLower(strings.TrimSpace(item))
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	if len(normalized) == 0 {
		normalized = []string{"card"}
	}
	sort.Strings(normalized)
	c.PaymentMethodTypes = normalized
}

func toMinorAmount(amount decimal.Decimal, currency string) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	scale := currencyScale(currency)
	minor := amount.Shift(int32(scale))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount precision is invalid", ErrConfigInvalid)
	}
	return minor.IntPart(), nil
}

func fromMinorAmount(minor int64, currency string) decimal.Decimal {
	scale := currencyScale(currency)
	return decimal.NewFromInt(minor).Shift(int32(-scale))
}

func currencyScale(currency string) int {
	upper := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := zeroDecimalCurrencies[upper]; ok {
		return 0
	}
	return 2
}

func (c *Client) doFormRequest(ctx context.Context, method, path string, form url.Values) ([]byte, int, error) {
	endpoint := c.cfg.APIBaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func readPaymentIntentID(raw map[string]interface{}) string {
	if raw == nil {
		return ""
	}
	value, ok := raw["payment_intent"]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]interface{}:
		return strings.TrimSpace(readString(typed, "id"))
	default:
		return ""
	}
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return strings.ToLower(hex.EncodeToString(h.Sum(nil)))
}

func parseSignatureHeader(signatureHeader string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0)
	for _, part := range strings.Split(signatureHeader, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func getHeaderValue(headers map[string]string, key string) string {
	if len(headers) == 0 || strings.TrimSpace(key) == "" {
		return ""
	}
	for h, value := range headers {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int:
		return strconv.Itoa(typed)
	default:
		return ""
	}
}

func readUint(raw map[string]interface{}, key string) uint {
	value := readString(raw, key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil || strings.TrimSpace(key) == "" {
		return 0
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return 0
	}
	switch typed := value.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err == nil {
			return parsed
		}
		floatVal, err := typed.Float64()
		if err != nil {
			return 0
		}
		return int64(floatVal)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
