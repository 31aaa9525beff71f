package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/models"

	"gorm.io/gorm"
)

// latestPromotionJoin 最近一次推广支付时间子查询
const latestPromotionJoin = "LEFT JOIN (SELECT announcement_id, MAX(created_at) AS latest_promotion_at " +
	"FROM announcement_payments WHERE promotion_id IS NOT NULL GROUP BY announcement_id) lp " +
	"ON lp.announcement_id = announcements.id"

// promotedLatestPromotion 仅推广中的房源参与推广时间排序
const promotedLatestPromotion = "CASE WHEN announcements.is_promoted THEN lp.latest_promotion_at END"

// AnnouncementRepository 房源数据访问接口
type AnnouncementRepository interface {
	GetByID(id uint) (*models.Announcement, error)
	GetPublicByID(id uint, status string) (*models.Announcement, error)
	ListRanked(filter ListingFilter) ([]models.Announcement, int64, error)
	ListFiltered(filter ListingFilter) ([]models.Announcement, error)
	ListActiveAfter(afterID uint, limit int) ([]models.Announcement, error)
	ListPendingCreatedBefore(cutoff time.Time) ([]models.Announcement, error)
	Create(announcement *models.Announcement) error
	MarkPendingIfActive(id uint) (int64, error)
	Activate(id uint, promoted bool) error
	ClearPromotion(id uint) (int64, error)
	DeleteWithPayments(id uint) error
	WithTx(tx *gorm.DB) *GormAnnouncementRepository
}

// GormAnnouncementRepository GORM 实现
type GormAnnouncementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository 创建房源仓库
func NewAnnouncementRepository(db *gorm.DB) *GormAnnouncementRepository {
	return &GormAnnouncementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAnnouncementRepository) WithTx(tx *gorm.DB) *GormAnnouncementRepository {
	if tx == nil {
		return r
	}
	return &GormAnnouncementRepository{db: tx}
}

// GetByID 根据 ID 获取房源
func (r *GormAnnouncementRepository) GetByID(id uint) (*models.Announcement, error) {
	var announcement models.Announcement
	if err := r.db.First(&announcement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &announcement, nil
}

// GetPublicByID 获取公开房源详情（含发布人与中介）
func (r *GormAnnouncementRepository) GetPublicByID(id uint, status string) (*models.Announcement, error) {
	var announcement models.Announcement
	query := r.db.Preload("User").Preload("Agency")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.First(&announcement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &announcement, nil
}

// ListRanked 按推广排名查询房源（查询级联表排序）
func (r *GormAnnouncementRepository) ListRanked(filter ListingFilter) ([]models.Announcement, int64, error) {
	query := r.applyListingFilter(r.db.Model(&models.Announcement{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.
		Select("announcements.*").
		Joins(latestPromotionJoin).
		Order("announcements.is_promoted DESC").
		Order(nullsLastOrder(promotedLatestPromotion)).
		Order("announcements.created_at DESC").
		Order("announcements.id DESC")
	query = applyPagination(query, filter.Page, filter.PageSize)

	var announcements []models.Announcement
	if err := query.Find(&announcements).Error; err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

// ListFiltered 查询全部符合条件的房源（不排序不分页，供内存排序使用）
func (r *GormAnnouncementRepository) ListFiltered(filter ListingFilter) ([]models.Announcement, error) {
	var announcements []models.Announcement
	query := r.applyListingFilter(r.db.Model(&models.Announcement{}), filter)
	if err := query.Find(&announcements).Error; err != nil {
		return nil, err
	}
	return announcements, nil
}

func (r *GormAnnouncementRepository) applyListingFilter(query *gorm.DB, filter ListingFilter) *gorm.DB {
	status := strings.TrimSpace(filter.Status)
	if status == "" {
		status = constants.AnnouncementStatusActive
	}
	query = query.Where("announcements.status = ?", status)

	if cities := compactStrings(filter.Cities); len(cities) == 1 {
		query = query.Where("announcements.city = ?", cities[0])
	} else if len(cities) > 1 {
		query = query.Where("announcements.city IN ?", cities)
	}
	if county := strings.TrimSpace(filter.County); county != "" {
		query = query.Where("announcements.county = ?", county)
	}
	if types := compactStrings(filter.AnnouncementTypes); len(types) > 0 {
		query = query.Where("announcements.announcement_type IN ?", types)
	}
	if types := compactStrings(filter.TransactionTypes); len(types) > 0 {
		query = query.Where("announcements.transaction_type IN ?", types)
	}
	if providerType := strings.TrimSpace(filter.ProviderType); providerType != "" {
		query = query.Where("announcements.provider_type = ?", providerType)
	}
	if filter.UserID != 0 {
		query = query.Where("announcements.user_id = ?", filter.UserID)
	}
	if filter.MinPrice != nil {
		query = query.Where("announcements.price >= ?", models.NewMoneyFromDecimal(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		query = query.Where("announcements.price <= ?", models.NewMoneyFromDecimal(*filter.MaxPrice))
	}
	if filter.MinSurface != nil {
		query = query.Where("announcements.surface >= ?", *filter.MinSurface)
	}
	if filter.MaxSurface != nil {
		query = query.Where("announcements.surface <= ?", *filter.MaxSurface)
	}
	if filter.Rooms != nil {
		query = query.Where("announcements.rooms = ?", *filter.Rooms)
	} else {
		if filter.MinRooms != nil {
			query = query.Where("announcements.rooms >= ?", *filter.MinRooms)
		}
		if filter.MaxRooms != nil {
			query = query.Where("announcements.rooms <= ?", *filter.MaxRooms)
		}
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"announcements.title", "announcements.description", "announcements.street"})
		query = query.Where("("+condition+")", repeatLikeArgs("%"+search+"%", argCount)...)
	}
	return query
}

// ListActiveAfter 按主键游标分批获取在架房源
func (r *GormAnnouncementRepository) ListActiveAfter(afterID uint, limit int) ([]models.Announcement, error) {
	var announcements []models.Announcement
	query := r.db.Where("status = ? AND id > ?", constants.AnnouncementStatusActive, afterID).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&announcements).Error; err != nil {
		return nil, err
	}
	return announcements, nil
}

// ListPendingCreatedBefore 获取创建时间早于截止时间的待续费房源
func (r *GormAnnouncementRepository) ListPendingCreatedBefore(cutoff time.Time) ([]models.Announcement, error) {
	var announcements []models.Announcement
	err := r.db.Where("status = ? AND created_at < ?", constants.AnnouncementStatusPending, cutoff.UTC()).
		Order("id ASC").
		Find(&announcements).Error
	if err != nil {
		return nil, err
	}
	return announcements, nil
}

// Create 创建房源
func (r *GormAnnouncementRepository) Create(announcement *models.Announcement) error {
	return r.db.Create(announcement).Error
}

// MarkPendingIfActive 仅在仍为 active 时下架，返回受影响行数
func (r *GormAnnouncementRepository) MarkPendingIfActive(id uint) (int64, error) {
	result := r.db.Model(&models.Announcement{}).
		Where("id = ? AND status = ?", id, constants.AnnouncementStatusActive).
		Updates(map[string]interface{}{
			"status":     constants.AnnouncementStatusPending,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// Activate 支付成功后上架房源
func (r *GormAnnouncementRepository) Activate(id uint, promoted bool) error {
	updates := map[string]interface{}{
		"status":     constants.AnnouncementStatusActive,
		"updated_at": time.Now(),
	}
	if promoted {
		updates["is_promoted"] = true
	}
	return r.db.Model(&models.Announcement{}).Where("id = ?", id).Updates(updates).Error
}

// ClearPromotion 清除推广标记，返回受影响行数
func (r *GormAnnouncementRepository) ClearPromotion(id uint) (int64, error) {
	result := r.db.Model(&models.Announcement{}).
		Where("id = ? AND is_promoted = ?", id, true).
		Updates(map[string]interface{}{
			"is_promoted": false,
			"updated_at":  time.Now(),
		})
	return result.RowsAffected, result.Error
}

// DeleteWithPayments 删除房源及其支付流水
func (r *GormAnnouncementRepository) DeleteWithPayments(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("announcement_id = ?", id).Delete(&models.AnnouncementPayment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Announcement{}, id).Error
	})
}

func compactStrings(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
