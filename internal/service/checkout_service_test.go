package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/payment/stripe"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeGateway struct {
	inputs []stripe.CheckoutInput
	event  *stripe.WebhookEvent
	err    error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.inputs = append(g.inputs, input)
	return &stripe.CheckoutSession{SessionID: "cs_test_42", URL: "https://checkout.stripe.com/c/cs_test_42", Status: "open"}, nil
}

func (g *fakeGateway) VerifyAndParseWebhook(_ map[string]string, _ []byte, _ time.Time) (*stripe.WebhookEvent, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.event, nil
}

func newTestCheckoutService(db *gorm.DB, gateway PaymentGateway, now time.Time) *CheckoutService {
	repos := newTestRepos(db)
	discounts := NewDiscountService(repos.discounts)
	payments := newTestPaymentService(db, nil)
	svc := NewCheckoutService(repos.announcements, repos.packages, repos.promotions, discounts, payments, gateway)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCheckoutCreatesStripeSession(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	gateway := &fakeGateway{}
	svc := newTestCheckoutService(db, gateway, now)

	user := createTestUser(t, db, "buyer@imo.ro")
	announcement := createServiceAnnouncement(t, db, user.ID, constants.AnnouncementStatusPending, false, now)
	pkg := createServicePackage(t, db, constants.PackageType15Days, "15", intPtr(15))
	promotion := createServicePromotion(t, db, constants.PromotionType7Days, "10", 7)
	createServiceDiscount(t, db, models.Discount{
		Code:        "PROMO10",
		FixedAmount: moneyPtr("4"),
		ValidFrom:   now.AddDate(0, 0, -1),
		ValidTo:     now.AddDate(0, 0, 1),
		Applicability: models.DiscountApplicability{
			Kind:  constants.DiscountKindPromotion,
			Types: models.StringArray{constants.PromotionType7Days},
		},
	})

	expected := decimal.RequireFromString("21.00")
	result, err := svc.Checkout(context.Background(), CheckoutInput{
		UserID:         user.ID,
		CustomerEmail:  user.Email,
		AnnouncementID: announcement.ID,
		PackageID:      pkg.ID,
		PromotionID:    &promotion.ID,
		Amount:         &expected,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.Free || result.SessionID != "cs_test_42" || result.CheckoutURL == "" {
		t.Fatalf("unexpected checkout result: %+v", result)
	}
	if result.Amount.String() != "21.00" || result.OriginalAmount.String() != "25.00" {
		t.Fatalf("unexpected amounts: %s of %s", result.Amount, result.OriginalAmount)
	}
	if len(gateway.inputs) != 1 {
		t.Fatalf("expected one gateway call")
	}
	sent := gateway.inputs[0]
	if sent.PromotionDiscountCode != "PROMO10" || sent.DiscountCode != "" || sent.Currency != "EUR" {
		t.Fatalf("unexpected gateway input: %+v", sent)
	}

	var count int64
	db.Model(&models.AnnouncementPayment{}).Count(&count)
	if count != 0 {
		t.Fatalf("paid checkout must wait for the webhook before recording")
	}
}

func TestCheckoutFreePackageRecordsImmediately(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestCheckoutService(db, nil, now)

	user := createTestUser(t, db, "free@imo.ro")
	announcement := createServiceAnnouncement(t, db, user.ID, constants.AnnouncementStatusPending, false, now)
	pkg := createServicePackage(t, db, constants.PackageTypeFree, "0", intPtr(7))

	result, err := svc.Checkout(context.Background(), CheckoutInput{UserID: user.ID, AnnouncementID: announcement.ID, PackageID: pkg.ID})
	if err != nil {
		t.Fatalf("free checkout failed: %v", err)
	}
	if !result.Free || result.Payment == nil || result.Payment.Provider != constants.PaymentProviderFree {
		t.Fatalf("unexpected free checkout: %+v", result)
	}
	if got := loadAnnouncement(t, db, announcement.ID).Status; got != constants.AnnouncementStatusActive {
		t.Fatalf("free checkout should activate the listing, got %s", got)
	}
}

func TestCheckoutErrors(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	owner := createTestUser(t, db, "owner2@imo.ro")
	other := createTestUser(t, db, "other@imo.ro")
	announcement := createServiceAnnouncement(t, db, owner.ID, constants.AnnouncementStatusPending, false, now)
	pkg := createServicePackage(t, db, constants.PackageType7Days, "10", intPtr(7))
	ronPromotion := createServicePromotion(t, db, constants.PromotionType15Days, "30", 15)
	db.Model(&models.PromotionPackage{}).Where("id = ?", ronPromotion.ID).Update("currency", "RON")

	wrong := decimal.NewFromInt(5)
	t.Run("foreign_announcement", func(t *testing.T) {
		svc := newTestCheckoutService(db, &fakeGateway{}, now)
		_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: other.ID, AnnouncementID: announcement.ID, PackageID: pkg.ID})
		if !errors.Is(err, ErrAnnouncementNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
	t.Run("amount_mismatch", func(t *testing.T) {
		svc := newTestCheckoutService(db, &fakeGateway{}, now)
		_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: owner.ID, AnnouncementID: announcement.ID, PackageID: pkg.ID, Amount: &wrong})
		if !errors.Is(err, ErrPaymentAmountMismatch) {
			t.Fatalf("expected mismatch, got %v", err)
		}
	})
	t.Run("currency_mismatch", func(t *testing.T) {
		svc := newTestCheckoutService(db, &fakeGateway{}, now)
		_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: owner.ID, AnnouncementID: announcement.ID, PackageID: pkg.ID, PromotionID: &ronPromotion.ID})
		if !errors.Is(err, ErrPaymentInvalid) {
			t.Fatalf("expected invalid payment, got %v", err)
		}
	})
	t.Run("gateway_missing", func(t *testing.T) {
		svc := newTestCheckoutService(db, nil, now)
		_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: owner.ID, AnnouncementID: announcement.ID, PackageID: pkg.ID})
		if !errors.Is(err, ErrPaymentGatewayUnavailable) {
			t.Fatalf("expected gateway unavailable, got %v", err)
		}
	})
	t.Run("gateway_error", func(t *testing.T) {
		svc := newTestCheckoutService(db, &fakeGateway{err: stripe.ErrRequestFailed}, now)
		_, err := svc.Checkout(context.Background(), CheckoutInput{UserID: owner.ID, AnnouncementID: announcement.ID, PackageID: pkg.ID})
		if !errors.Is(err, ErrPaymentGatewayUnavailable) {
			t.Fatalf("expected gateway unavailable, got %v", err)
		}
	})
}

func TestHandleStripeWebhook(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	user := createTestUser(t, db, "hook@imo.ro")
	announcement := createServiceAnnouncement(t, db, user.ID, constants.AnnouncementStatusPending, false, now)
	pkg := createServicePackage(t, db, constants.PackageType15Days, "15", intPtr(15))

	gateway := &fakeGateway{event: &stripe.WebhookEvent{
		EventID:   "evt_1",
		EventType: "checkout.session.completed",
		Status:    "success",
		Confirmed: &stripe.ConfirmedPayment{
			EventID:        "evt_1",
			SessionID:      "cs_hook",
			AnnouncementID: announcement.ID,
			PackageID:      pkg.ID,
			Amount:         decimal.NewFromInt(15),
			Currency:       "eur",
		},
	}}
	svc := newTestCheckoutService(db, gateway, now)

	first, err := svc.HandleStripeWebhook(context.Background(), nil, []byte("{}"))
	if err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	if first.Ignored || first.Duplicate || first.Payment == nil {
		t.Fatalf("unexpected first outcome: %+v", first)
	}
	if first.Payment.ExternalTxnID == nil || *first.Payment.ExternalTxnID != "cs_hook" {
		t.Fatalf("session id should be the idempotency key")
	}
	end := first.Payment.PackageEndDate
	if end == nil || !end.Equal(now.AddDate(0, 0, 15)) {
		t.Fatalf("unexpected package end: %v", end)
	}

	replay, err := svc.HandleStripeWebhook(context.Background(), nil, []byte("{}"))
	if err != nil {
		t.Fatalf("replay should not fail: %v", err)
	}
	if !replay.Duplicate || replay.Payment == nil || replay.Payment.ID != first.Payment.ID {
		t.Fatalf("unexpected replay outcome: %+v", replay)
	}

	gateway.event = &stripe.WebhookEvent{EventID: "evt_2", EventType: "checkout.session.expired", Status: "failed"}
	ignored, err := svc.HandleStripeWebhook(context.Background(), nil, []byte("{}"))
	if err != nil || !ignored.Ignored {
		t.Fatalf("expected ignored outcome, got %+v err=%v", ignored, err)
	}

	gateway.err = stripe.ErrSignatureInvalid
	if _, err := svc.HandleStripeWebhook(context.Background(), nil, []byte("{}")); !errors.Is(err, stripe.ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}
