package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/metrics"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SavePaymentInput 已确认支付的入账参数
type SavePaymentInput struct {
	AnnouncementID        uint
	PackageID             uint
	Amount                decimal.Decimal
	OriginalAmount        *decimal.Decimal
	DiscountCode          string
	Currency              string
	PromotionID           *uint
	PromotionDiscountCode string
	ExternalTxnID         string
	Provider              string
	Now                   time.Time
}

// AnnouncementPaymentService 房源支付入账服务
type AnnouncementPaymentService struct {
	announcementRepo repository.AnnouncementRepository
	paymentRepo      repository.AnnouncementPaymentRepository
	packageRepo      repository.AnnouncementPackageRepository
	promotionRepo    repository.PromotionPackageRepository
	discountRepo     repository.DiscountRepository
	userRepo         repository.UserRepository
	notifier         Notifier
	metrics          *metrics.Metrics
	frontendURL      string
}

// AnnouncementPaymentServiceOptions 入账服务依赖
type AnnouncementPaymentServiceOptions struct {
	AnnouncementRepo repository.AnnouncementRepository
	PaymentRepo      repository.AnnouncementPaymentRepository
	PackageRepo      repository.AnnouncementPackageRepository
	PromotionRepo    repository.PromotionPackageRepository
	DiscountRepo     repository.DiscountRepository
	UserRepo         repository.UserRepository
	Notifier         Notifier
	Metrics          *metrics.Metrics
	FrontendURL      string
}

// NewAnnouncementPaymentService 创建入账服务
func NewAnnouncementPaymentService(opts AnnouncementPaymentServiceOptions) *AnnouncementPaymentService {
	return &AnnouncementPaymentService{
		announcementRepo: opts.AnnouncementRepo,
		paymentRepo:      opts.PaymentRepo,
		packageRepo:      opts.PackageRepo,
		promotionRepo:    opts.PromotionRepo,
		discountRepo:     opts.DiscountRepo,
		userRepo:         opts.UserRepo,
		notifier:         opts.Notifier,
		metrics:          opts.Metrics,
		frontendURL:      opts.FrontendURL,
	}
}

// SaveSuccessfulPayment 记录支付并上架房源。
// 外部交易号重复时返回已有记录，错误包裹 ErrPaymentDuplicate。
func (s *AnnouncementPaymentService) SaveSuccessfulPayment(ctx context.Context, input SavePaymentInput) (*models.AnnouncementPayment, error) {
	if err := validateSavePaymentInput(input); err != nil {
		return nil, err
	}
	txnID := strings.TrimSpace(input.ExternalTxnID)
	if existing, err := s.findDuplicate(txnID); err != nil || existing != nil {
		return existing, err
	}

	announcement, err := s.announcementRepo.GetByID(input.AnnouncementID)
	if err != nil {
		return nil, err
	}
	if announcement == nil {
		return nil, fmt.Errorf("%w: id=%d", ErrAnnouncementNotFound, input.AnnouncementID)
	}
	pkg, err := s.packageRepo.GetByID(input.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, fmt.Errorf("%w: id=%d", ErrPackageNotFound, input.PackageID)
	}
	discount, err := s.resolveDiscount(input.DiscountCode, "discount_code")
	if err != nil {
		return nil, err
	}
	promotionDiscount, err := s.resolveDiscount(input.PromotionDiscountCode, "promotion_discount_code")
	if err != nil {
		return nil, err
	}
	var promotion *models.PromotionPackage
	if input.PromotionID != nil {
		promotion, err = s.promotionRepo.GetByID(*input.PromotionID)
		if err != nil {
			return nil, err
		}
		if promotion == nil {
			return nil, fmt.Errorf("%w: id=%d", ErrPromotionPackageNotFound, *input.PromotionID)
		}
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	payment := BuildAnnouncementPayment(input, pkg, promotion, now)
	if discount != nil {
		payment.DiscountID = &discount.ID
	}
	if promotionDiscount != nil {
		payment.PromotionDiscountID = &promotionDiscount.ID
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}
		return s.announcementRepo.WithTx(tx).Activate(announcement.ID, promotion != nil)
	})
	if err != nil {
		// 并发投递同一交易号时唯一索引冲突，按重复处理
		if existing, dupErr := s.findDuplicate(txnID); dupErr != nil || existing != nil {
			return existing, dupErr
		}
		return nil, err
	}

	s.metrics.IncPaymentRecorded(payment.Provider)
	logger.Infow("announcement_payment_recorded",
		"payment_id", payment.ID,
		"announcement_id", payment.AnnouncementID,
		"package_id", payment.PackageID,
		"promotion_id", payment.PromotionID,
		"amount", payment.Amount.String(),
		"provider", payment.Provider,
	)
	s.notifyConfirmation(ctx, announcement)
	return payment, nil
}

// BuildAnnouncementPayment 根据套餐时长推导支付记录的有效期
func BuildAnnouncementPayment(input SavePaymentInput, pkg *models.AnnouncementPackage, promotion *models.PromotionPackage, now time.Time) *models.AnnouncementPayment {
	payment := &models.AnnouncementPayment{
		AnnouncementID: input.AnnouncementID,
		PackageID:      input.PackageID,
		Currency:       strings.ToUpper(strings.TrimSpace(input.Currency)),
		Amount:         models.NewMoneyFromDecimal(input.Amount),
		StartDate:      now,
		Provider:       normalizeProvider(input.Provider),
	}
	if pkg != nil && pkg.DurationDays != nil {
		end := addDays(now, *pkg.DurationDays)
		payment.PackageEndDate = &end
	}
	if promotion != nil {
		promotionID := promotion.ID
		end := addDays(now, promotion.DurationDays)
		payment.PromotionID = &promotionID
		payment.PromotionEndDate = &end
	}
	if input.OriginalAmount != nil {
		payment.OriginalAmount = models.NewMoneyPtr(*input.OriginalAmount)
		payment.DiscountAmount = models.NewMoneyPtr(input.OriginalAmount.Sub(input.Amount))
	}
	if txnID := strings.TrimSpace(input.ExternalTxnID); txnID != "" {
		payment.ExternalTxnID = &txnID
	}
	return payment
}

func addDays(start time.Time, days int) time.Time {
	return start.Add(time.Duration(days) * 24 * time.Hour)
}

func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return constants.PaymentProviderStripe
	}
	return provider
}

func validateSavePaymentInput(input SavePaymentInput) error {
	if input.AnnouncementID == 0 {
		return fmt.Errorf("%w: announcement id is required", ErrPaymentInvalid)
	}
	if input.PackageID == 0 {
		return fmt.Errorf("%w: package id is required", ErrPaymentInvalid)
	}
	if input.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrPaymentInvalid)
	}
	if input.OriginalAmount != nil && input.OriginalAmount.IsNegative() {
		return fmt.Errorf("%w: original amount must not be negative", ErrPaymentInvalid)
	}
	if strings.TrimSpace(input.Currency) == "" {
		return fmt.Errorf("%w: currency is required", ErrPaymentInvalid)
	}
	if input.PromotionID != nil && *input.PromotionID == 0 {
		return fmt.Errorf("%w: promotion id is invalid", ErrPaymentInvalid)
	}
	return nil
}

func (s *AnnouncementPaymentService) findDuplicate(txnID string) (*models.AnnouncementPayment, error) {
	if txnID == "" {
		return nil, nil
	}
	existing, err := s.paymentRepo.GetByExternalTxnID(txnID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	s.metrics.IncPaymentDuplicate()
	logger.Infow("announcement_payment_duplicate", "external_txn_id", txnID, "payment_id", existing.ID)
	return existing, fmt.Errorf("%w: external_txn_id=%s", ErrPaymentDuplicate, txnID)
}

// 未知折扣码降级为无折扣，避免丢失已支付的订单
func (s *AnnouncementPaymentService) resolveDiscount(code, field string) (*models.Discount, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	discount, err := s.discountRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if discount == nil {
		logger.Warnw("announcement_payment_discount_stale", "field", field, "code", code)
	}
	return discount, nil
}

func (s *AnnouncementPaymentService) notifyConfirmation(ctx context.Context, announcement *models.Announcement) {
	if s.notifier == nil || s.userRepo == nil {
		return
	}
	user, err := s.userRepo.GetByID(announcement.UserID)
	if err != nil || user == nil {
		logger.Warnw("announcement_confirmation_user_missing", "announcement_id", announcement.ID, "user_id", announcement.UserID, "error", err)
		return
	}
	link := BuildAnnouncementLink(s.frontendURL, announcement.ID)
	if err := s.notifier.SendAnnouncementConfirmation(ctx, user.Email, user.DisplayName(), link); err != nil {
		logger.Warnw("announcement_confirmation_notify_failed", "announcement_id", announcement.ID, "error", err)
	}
}
