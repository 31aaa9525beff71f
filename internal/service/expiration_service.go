package service

import (
	"context"
	"errors"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/metrics"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"
)

const defaultExpirationBatchSize = 200

// SweepResult 到期巡检统计
type SweepResult struct {
	Checked          int `json:"checked"`
	Reminded         int `json:"reminded"`
	Expired          int `json:"expired"`
	Demoted          int `json:"demoted"`
	PromotionCleared int `json:"promotion_cleared"`
	Failures         int `json:"failures"`
}

// ExpirationServiceOptions 到期巡检依赖
type ExpirationServiceOptions struct {
	AnnouncementRepo repository.AnnouncementRepository
	PaymentRepo      repository.AnnouncementPaymentRepository
	UserRepo         repository.UserRepository
	Notifier         Notifier
	Metrics          *metrics.Metrics
	Location         *time.Location
	FrontendURL      string
	BatchSize        int
}

// ExpirationService 房源到期巡检
type ExpirationService struct {
	announcementRepo repository.AnnouncementRepository
	paymentRepo      repository.AnnouncementPaymentRepository
	userRepo         repository.UserRepository
	notifier         Notifier
	metrics          *metrics.Metrics
	location         *time.Location
	frontendURL      string
	batchSize        int
}

// NewExpirationService 创建到期巡检服务
func NewExpirationService(opts ExpirationServiceOptions) *ExpirationService {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultExpirationBatchSize
	}
	return &ExpirationService{
		announcementRepo: opts.AnnouncementRepo,
		paymentRepo:      opts.PaymentRepo,
		userRepo:         opts.UserRepo,
		notifier:         opts.Notifier,
		metrics:          opts.Metrics,
		location:         loc,
		frontendURL:      opts.FrontendURL,
		batchSize:        batchSize,
	}
}

// CalendarDaysBetween 计算两个时间在指定时区下相差的自然日数（later - earlier）
func CalendarDaysBetween(later, earlier time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	ly, lm, ld := later.In(loc).Date()
	ey, em, ed := earlier.In(loc).Date()
	laterDay := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	earlierDay := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(laterDay.Sub(earlierDay).Hours() / 24)
}

// RunSweep 巡检全部在架房源，单条失败不影响其他房源
func (s *ExpirationService) RunSweep(ctx context.Context, now time.Time) (result SweepResult, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveSweep("expiration", time.Since(started), err)
		s.metrics.AddTransitions("expired", result.Expired)
		s.metrics.AddTransitions("demoted", result.Demoted)
		s.metrics.AddTransitions("promotion_cleared", result.PromotionCleared)
	}()
	if now.IsZero() {
		now = time.Now()
	}
	logger.Infow("expiration_sweep_started", "now", now)

	afterID := uint(0)
	for {
		if err = ctx.Err(); err != nil {
			return result, err
		}
		batch, listErr := s.announcementRepo.ListActiveAfter(afterID, s.batchSize)
		if listErr != nil {
			err = listErr
			return result, err
		}
		if len(batch) == 0 {
			break
		}
		if err = s.sweepBatch(ctx, batch, now, &result); err != nil {
			return result, err
		}
		afterID = batch[len(batch)-1].ID
		if len(batch) < s.batchSize {
			break
		}
	}

	logger.Infow("expiration_sweep_done",
		"checked", result.Checked,
		"reminded", result.Reminded,
		"expired", result.Expired,
		"demoted", result.Demoted,
		"promotion_cleared", result.PromotionCleared,
		"failures", result.Failures,
	)
	return result, nil
}

func (s *ExpirationService) sweepBatch(ctx context.Context, batch []models.Announcement, now time.Time, result *SweepResult) error {
	ids := make([]uint, 0, len(batch))
	userIDs := make([]uint, 0, len(batch))
	for _, item := range batch {
		ids = append(ids, item.ID)
		userIDs = append(userIDs, item.UserID)
	}
	packagePayments, err := s.paymentRepo.LatestPackagePayments(ids)
	if err != nil {
		return err
	}
	promotionPayments, err := s.paymentRepo.LatestPromotionPayments(ids)
	if err != nil {
		return err
	}
	users := make(map[uint]*models.User, len(userIDs))
	if s.userRepo != nil {
		rows, err := s.userRepo.ListByIDs(userIDs)
		if err != nil {
			return err
		}
		for i := range rows {
			users[rows[i].ID] = &rows[i]
		}
	}

	for i := range batch {
		announcement := &batch[i]
		result.Checked++
		if promotion, ok := promotionPayments[announcement.ID]; ok {
			s.clearLapsedPromotion(announcement, &promotion, now, result)
		}
		payment, ok := packagePayments[announcement.ID]
		if !ok || payment.PackageEndDate == nil {
			continue
		}
		s.applyExpiration(ctx, announcement, users[announcement.UserID], *payment.PackageEndDate, now, result)
	}
	return nil
}

func (s *ExpirationService) clearLapsedPromotion(announcement *models.Announcement, payment *models.AnnouncementPayment, now time.Time, result *SweepResult) {
	if !announcement.IsPromoted || payment.PromotionEndDate == nil || !payment.PromotionEndDate.Before(now) {
		return
	}
	affected, err := s.announcementRepo.ClearPromotion(announcement.ID)
	if err != nil {
		result.Failures++
		logger.Errorw("expiration_promotion_clear_failed", "announcement_id", announcement.ID, "error", err)
		return
	}
	if affected > 0 {
		result.PromotionCleared++
		logger.Infow("expiration_promotion_cleared", "announcement_id", announcement.ID)
	}
}

func (s *ExpirationService) applyExpiration(ctx context.Context, announcement *models.Announcement, user *models.User, endDate time.Time, now time.Time, result *SweepResult) {
	daysLeft := CalendarDaysBetween(endDate, now, s.location)
	link := BuildRenewLink(s.frontendURL, announcement.ID)

	switch {
	case isReminderDay(daysLeft):
		switch s.notify(announcement, user, "reminder", func(email, name string) error {
			return s.notifier.SendExpirationReminder(ctx, email, name, link, daysLeft)
		}) {
		case notifySent:
			result.Reminded++
		case notifyFailed:
			result.Failures++
		}
	case daysLeft == 0:
		if !s.markPending(announcement.ID, daysLeft, result) {
			return
		}
		result.Expired++
		if s.notify(announcement, user, "expired", func(email, name string) error {
			return s.notifier.SendExpiredNotice(ctx, email, name, link)
		}) == notifyFailed {
			result.Failures++
		}
	case daysLeft < 0:
		if s.markPending(announcement.ID, daysLeft, result) {
			result.Demoted++
		}
	}
}

func (s *ExpirationService) markPending(announcementID uint, daysLeft int, result *SweepResult) bool {
	affected, err := s.announcementRepo.MarkPendingIfActive(announcementID)
	if err != nil {
		result.Failures++
		logger.Errorw("expiration_transition_failed", "announcement_id", announcementID, "error", err)
		return false
	}
	if affected == 0 {
		// 巡检期间已被续费或状态已变更
		logger.Infow("expiration_transition_skipped", "announcement_id", announcementID, "days_left", daysLeft)
		return false
	}
	logger.Infow("expiration_transition_pending", "announcement_id", announcementID, "days_left", daysLeft)
	return true
}

type notifyOutcome int

const (
	notifySent notifyOutcome = iota
	notifySkipped
	notifyFailed
)

func (s *ExpirationService) notify(announcement *models.Announcement, user *models.User, kind string, send func(email, name string) error) notifyOutcome {
	if s.notifier == nil {
		return notifySent
	}
	if user == nil {
		logger.Warnw("expiration_notify_user_missing", "announcement_id", announcement.ID, "user_id", announcement.UserID, "kind", kind)
		return notifyFailed
	}
	err := send(user.Email, user.DisplayName())
	switch {
	case err == nil:
		return notifySent
	case errors.Is(err, ErrEmailServiceDisabled), errors.Is(err, ErrEmailServiceNotConfigured):
		// 邮件未启用，不计入失败
		logger.Debugw("expiration_notify_skip_disabled", "announcement_id", announcement.ID, "kind", kind, "error", err)
		return notifySkipped
	default:
		logger.Warnw("expiration_notify_failed", "announcement_id", announcement.ID, "kind", kind, "error", err)
		return notifyFailed
	}
}

func isReminderDay(daysLeft int) bool {
	for _, day := range constants.ExpirationReminderDays {
		if day == daysLeft {
			return true
		}
	}
	return false
}
