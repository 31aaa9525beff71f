package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/payment/stripe"
	"github.com/imobiliare-next/internal/repository"

	"github.com/shopspring/decimal"
)

// PaymentGateway 收款网关（Stripe Checkout）
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error)
	VerifyAndParseWebhook(headers map[string]string, body []byte, now time.Time) (*stripe.WebhookEvent, error)
}

// CheckoutInput 用户下单参数，Amount 为前端展示的应付金额
type CheckoutInput struct {
	UserID         uint
	CustomerEmail  string
	AnnouncementID uint
	PackageID      uint
	PromotionID    *uint
	Amount         *decimal.Decimal
}

// CheckoutResult 下单结果；免费订单直接入账
type CheckoutResult struct {
	Free           bool                        `json:"free"`
	SessionID      string                      `json:"session_id,omitempty"`
	CheckoutURL    string                      `json:"checkout_url,omitempty"`
	OriginalAmount models.Money                `json:"original_amount"`
	Amount         models.Money                `json:"amount"`
	Currency       string                      `json:"currency"`
	Payment        *models.AnnouncementPayment `json:"payment,omitempty"`
}

// WebhookOutcome Webhook 处理结果
type WebhookOutcome struct {
	EventID   string                      `json:"event_id"`
	EventType string                      `json:"event_type"`
	Ignored   bool                        `json:"ignored"`
	Duplicate bool                        `json:"duplicate"`
	Payment   *models.AnnouncementPayment `json:"payment,omitempty"`
}

// CheckoutService 下单与支付回调服务
type CheckoutService struct {
	announcementRepo repository.AnnouncementRepository
	packageRepo      repository.AnnouncementPackageRepository
	promotionRepo    repository.PromotionPackageRepository
	discounts        *DiscountService
	payments         *AnnouncementPaymentService
	gateway          PaymentGateway
	now              func() time.Time
}

// NewCheckoutService 创建下单服务，gateway 可为空（未配置 Stripe）
func NewCheckoutService(
	announcementRepo repository.AnnouncementRepository,
	packageRepo repository.AnnouncementPackageRepository,
	promotionRepo repository.PromotionPackageRepository,
	discounts *DiscountService,
	payments *AnnouncementPaymentService,
	gateway PaymentGateway,
) *CheckoutService {
	return &CheckoutService{
		announcementRepo: announcementRepo,
		packageRepo:      packageRepo,
		promotionRepo:    promotionRepo,
		discounts:        discounts,
		payments:         payments,
		gateway:          gateway,
		now:              time.Now,
	}
}

type checkoutQuote struct {
	pkg                   *models.AnnouncementPackage
	promotion             *models.PromotionPackage
	discountCode          string
	promotionDiscountCode string
	original              decimal.Decimal
	total                 decimal.Decimal
	currency              string
}

// Checkout 服务端重新报价后创建 Stripe Checkout；应付为 0 时直接入账
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.UserID == 0 || input.AnnouncementID == 0 || input.PackageID == 0 {
		return nil, fmt.Errorf("%w: announcement and package are required", ErrPaymentInvalid)
	}
	announcement, err := s.announcementRepo.GetByID(input.AnnouncementID)
	if err != nil {
		return nil, err
	}
	if announcement == nil || announcement.UserID != input.UserID {
		return nil, fmt.Errorf("%w: id=%d", ErrAnnouncementNotFound, input.AnnouncementID)
	}

	now := s.now()
	quote, err := s.quote(input, now)
	if err != nil {
		return nil, err
	}
	if input.Amount != nil && !input.Amount.Round(2).Equal(quote.total) {
		return nil, fmt.Errorf("%w: expected %s got %s", ErrPaymentAmountMismatch, quote.total.StringFixed(2), input.Amount.StringFixed(2))
	}

	result := &CheckoutResult{
		OriginalAmount: models.NewMoneyFromDecimal(quote.original),
		Amount:         models.NewMoneyFromDecimal(quote.total),
		Currency:       quote.currency,
	}
	var promotionID *uint
	if quote.promotion != nil {
		promotionID = &quote.promotion.ID
	}

	if quote.total.IsZero() {
		original := quote.original
		payment, err := s.payments.SaveSuccessfulPayment(ctx, SavePaymentInput{
			AnnouncementID:        announcement.ID,
			PackageID:             quote.pkg.ID,
			Amount:                decimal.Zero,
			OriginalAmount:        &original,
			DiscountCode:          quote.discountCode,
			Currency:              quote.currency,
			PromotionID:           promotionID,
			PromotionDiscountCode: quote.promotionDiscountCode,
			Provider:              constants.PaymentProviderFree,
			Now:                   now,
		})
		if err != nil {
			return nil, err
		}
		result.Free = true
		result.Payment = payment
		return result, nil
	}

	if s.gateway == nil {
		return nil, ErrPaymentGatewayUnavailable
	}
	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutInput{
		AnnouncementID:        announcement.ID,
		PackageID:             quote.pkg.ID,
		PromotionID:           promotionID,
		DiscountCode:          quote.discountCode,
		PromotionDiscountCode: quote.promotionDiscountCode,
		OriginalAmount:        quote.original,
		Amount:                quote.total,
		Currency:              quote.currency,
		Description:           checkoutDescription(announcement, quote),
		CustomerEmail:         input.CustomerEmail,
	})
	if err != nil {
		logger.Errorw("checkout_session_create_failed", "announcement_id", announcement.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}
	logger.Infow("checkout_session_created",
		"announcement_id", announcement.ID,
		"session_id", session.SessionID,
		"amount", quote.total.StringFixed(2),
	)
	result.SessionID = session.SessionID
	result.CheckoutURL = session.URL
	return result, nil
}

func (s *CheckoutService) quote(input CheckoutInput, now time.Time) (*checkoutQuote, error) {
	pkg, err := s.packageRepo.GetByID(input.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil || !pkg.Active {
		return nil, fmt.Errorf("%w: id=%d", ErrPackageNotFound, input.PackageID)
	}
	quote := &checkoutQuote{pkg: pkg, currency: strings.ToUpper(strings.TrimSpace(pkg.Currency))}

	discount, err := s.discounts.FindBestDiscount(input.UserID, constants.DiscountKindPackage, pkg.PackageType, now)
	if err != nil {
		return nil, err
	}
	quote.original = pkg.Price.Decimal
	quote.total = Reduce(pkg.Price.Decimal, discount)
	if discount != nil {
		quote.discountCode = discount.Code
	}

	if input.PromotionID != nil {
		promotion, err := s.promotionRepo.GetByID(*input.PromotionID)
		if err != nil {
			return nil, err
		}
		if promotion == nil || !promotion.Active {
			return nil, fmt.Errorf("%w: id=%d", ErrPromotionPackageNotFound, *input.PromotionID)
		}
		if !strings.EqualFold(promotion.Currency, quote.currency) {
			return nil, fmt.Errorf("%w: promotion currency %s differs from package currency %s", ErrPaymentInvalid, promotion.Currency, quote.currency)
		}
		promotionDiscount, err := s.discounts.FindBestDiscount(input.UserID, constants.DiscountKindPromotion, promotion.PromotionType, now)
		if err != nil {
			return nil, err
		}
		quote.promotion = promotion
		quote.original = quote.original.Add(promotion.Price.Decimal)
		quote.total = quote.total.Add(Reduce(promotion.Price.Decimal, promotionDiscount))
		if promotionDiscount != nil {
			quote.promotionDiscountCode = promotionDiscount.Code
		}
	}
	quote.original = quote.original.Round(2)
	quote.total = quote.total.Round(2)
	return quote, nil
}

func checkoutDescription(announcement *models.Announcement, quote *checkoutQuote) string {
	parts := []string{quote.pkg.Label}
	if quote.promotion != nil {
		parts = append(parts, quote.promotion.Label)
	}
	title := strings.TrimSpace(announcement.Title)
	if title == "" {
		return strings.Join(parts, " + ")
	}
	return strings.Join(parts, " + ") + " - " + title
}

// HandleStripeWebhook 校验 Stripe 回调并入账；重复事件视为成功
func (s *CheckoutService) HandleStripeWebhook(ctx context.Context, headers map[string]string, body []byte) (*WebhookOutcome, error) {
	if s.gateway == nil {
		return nil, ErrPaymentGatewayUnavailable
	}
	now := s.now()
	event, err := s.gateway.VerifyAndParseWebhook(headers, body, now)
	if err != nil {
		return nil, err
	}
	outcome := &WebhookOutcome{EventID: event.EventID, EventType: event.EventType}
	if event.Confirmed == nil {
		outcome.Ignored = true
		logger.Infow("stripe_webhook_ignored", "event_id", event.EventID, "event_type", event.EventType, "status", event.Status)
		return outcome, nil
	}

	confirmed := event.Confirmed
	payment, err := s.payments.SaveSuccessfulPayment(ctx, SavePaymentInput{
		AnnouncementID:        confirmed.AnnouncementID,
		PackageID:             confirmed.PackageID,
		Amount:                confirmed.Amount,
		OriginalAmount:        confirmed.OriginalAmount,
		DiscountCode:          confirmed.DiscountCode,
		Currency:              confirmed.Currency,
		PromotionID:           confirmed.PromotionID,
		PromotionDiscountCode: confirmed.PromotionDiscountCode,
		ExternalTxnID:         confirmed.ExternalTxnID(),
		Provider:              constants.PaymentProviderStripe,
		Now:                   now,
	})
	if errors.Is(err, ErrPaymentDuplicate) {
		outcome.Duplicate = true
		outcome.Payment = payment
		return outcome, nil
	}
	if err != nil {
		logger.Errorw("stripe_webhook_record_failed", "event_id", event.EventID, "announcement_id", confirmed.AnnouncementID, "error", err)
		return nil, err
	}
	outcome.Payment = payment
	return outcome, nil
}
