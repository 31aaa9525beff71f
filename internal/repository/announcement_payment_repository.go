package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/models"

	"gorm.io/gorm"
)

// AnnouncementPaymentRepository 房源支付流水数据访问接口（仅追加，无更新）
type AnnouncementPaymentRepository interface {
	Create(payment *models.AnnouncementPayment) error
	GetByID(id uint) (*models.AnnouncementPayment, error)
	GetByExternalTxnID(txnID string) (*models.AnnouncementPayment, error)
	LatestPackagePayments(announcementIDs []uint) (map[uint]models.AnnouncementPayment, error)
	LatestPromotionPayments(announcementIDs []uint) (map[uint]models.AnnouncementPayment, error)
	LatestPromotionTimes(announcementIDs []uint) (map[uint]time.Time, error)
	ExistsByPackageID(packageID uint) (bool, error)
	ExistsByPromotionID(promotionID uint) (bool, error)
	ListAdmin(filter AnnouncementPaymentListFilter) ([]models.AnnouncementPayment, int64, error)
	WithTx(tx *gorm.DB) *GormAnnouncementPaymentRepository
}

// GormAnnouncementPaymentRepository GORM 实现
type GormAnnouncementPaymentRepository struct {
	db *gorm.DB
}

// NewAnnouncementPaymentRepository 创建支付流水仓库
func NewAnnouncementPaymentRepository(db *gorm.DB) *GormAnnouncementPaymentRepository {
	return &GormAnnouncementPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAnnouncementPaymentRepository) WithTx(tx *gorm.DB) *GormAnnouncementPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormAnnouncementPaymentRepository{db: tx}
}

// Create 创建支付流水
func (r *GormAnnouncementPaymentRepository) Create(payment *models.AnnouncementPayment) error {
	return r.db.Create(payment).Error
}

// GetByID 根据 ID 获取支付流水
func (r *GormAnnouncementPaymentRepository) GetByID(id uint) (*models.AnnouncementPayment, error) {
	var payment models.AnnouncementPayment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByExternalTxnID 根据第三方交易号获取支付流水
func (r *GormAnnouncementPaymentRepository) GetByExternalTxnID(txnID string) (*models.AnnouncementPayment, error) {
	txnID = strings.TrimSpace(txnID)
	if txnID == "" {
		return nil, nil
	}
	var payment models.AnnouncementPayment
	if err := r.db.Where("external_txn_id = ?", txnID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// LatestPackagePayments 批量获取每个房源 start_date 最新且带展示到期时间的支付
func (r *GormAnnouncementPaymentRepository) LatestPackagePayments(announcementIDs []uint) (map[uint]models.AnnouncementPayment, error) {
	return r.latestByStartDate(announcementIDs, "package_end_date IS NOT NULL")
}

// LatestPromotionPayments 批量获取每个房源 start_date 最新且带推广到期时间的支付
func (r *GormAnnouncementPaymentRepository) LatestPromotionPayments(announcementIDs []uint) (map[uint]models.AnnouncementPayment, error) {
	return r.latestByStartDate(announcementIDs, "promotion_end_date IS NOT NULL")
}

func (r *GormAnnouncementPaymentRepository) latestByStartDate(announcementIDs []uint, condition string) (map[uint]models.AnnouncementPayment, error) {
	result := make(map[uint]models.AnnouncementPayment, len(announcementIDs))
	if len(announcementIDs) == 0 {
		return result, nil
	}
	var payments []models.AnnouncementPayment
	err := r.db.Where("announcement_id IN ?", announcementIDs).
		Where(condition).
		Order("announcement_id ASC, start_date DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	for _, payment := range payments {
		if _, ok := result[payment.AnnouncementID]; ok {
			continue
		}
		result[payment.AnnouncementID] = payment
	}
	return result, nil
}

// LatestPromotionTimes 批量获取每个房源最近一次推广支付的创建时间
func (r *GormAnnouncementPaymentRepository) LatestPromotionTimes(announcementIDs []uint) (map[uint]time.Time, error) {
	result := make(map[uint]time.Time, len(announcementIDs))
	if len(announcementIDs) == 0 {
		return result, nil
	}
	var rows []models.AnnouncementPayment
	err := r.db.Select("id", "announcement_id", "created_at").
		Where("announcement_id IN ? AND promotion_id IS NOT NULL", announcementIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if current, ok := result[row.AnnouncementID]; !ok || row.CreatedAt.After(current) {
			result[row.AnnouncementID] = row.CreatedAt
		}
	}
	return result, nil
}

// ExistsByPackageID 判断展示套餐是否已被支付引用
func (r *GormAnnouncementPaymentRepository) ExistsByPackageID(packageID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.AnnouncementPayment{}).Where("package_id = ?", packageID).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByPromotionID 判断推广套餐是否已被支付引用
func (r *GormAnnouncementPaymentRepository) ExistsByPromotionID(promotionID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.AnnouncementPayment{}).Where("promotion_id = ?", promotionID).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListAdmin 后台支付流水列表
func (r *GormAnnouncementPaymentRepository) ListAdmin(filter AnnouncementPaymentListFilter) ([]models.AnnouncementPayment, int64, error) {
	query := r.db.Model(&models.AnnouncementPayment{})
	if filter.AnnouncementID != 0 {
		query = query.Where("announcement_id = ?", filter.AnnouncementID)
	}
	if provider := strings.TrimSpace(filter.Provider); provider != "" {
		query = query.Where("provider = ?", provider)
	}
	if filter.OnlyPromotions {
		query = query.Where("promotion_id IS NOT NULL")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", filter.CreatedTo.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var payments []models.AnnouncementPayment
	if err := query.Preload("Package").Preload("Promotion").Order("id DESC").Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
