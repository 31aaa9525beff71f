package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/models"

	"gorm.io/gorm"
)

// DiscountRepository 折扣码数据访问接口
type DiscountRepository interface {
	GetByID(id uint) (*models.Discount, error)
	GetByCode(code string) (*models.Discount, error)
	ListCandidates(kind string, now time.Time) ([]models.Discount, error)
	List(filter DiscountListFilter) ([]models.Discount, int64, error)
	Create(discount *models.Discount) error
	Update(discount *models.Discount) error
	Delete(id uint) error
}

// GormDiscountRepository GORM 实现
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository 创建折扣码仓库
func NewDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRepository) WithTx(tx *gorm.DB) *GormDiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

// GetByID 根据 ID 获取折扣码
func (r *GormDiscountRepository) GetByID(id uint) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.First(&discount, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// GetByCode 根据折扣码获取
func (r *GormDiscountRepository) GetByCode(code string) (*models.Discount, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var discount models.Discount
	if err := r.db.Where("code = ?", code).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// ListCandidates 粗筛指定目录下当前有效的折扣，按创建时间倒序
// 类型集合与用户白名单由调用方在内存中判断
func (r *GormDiscountRepository) ListCandidates(kind string, now time.Time) ([]models.Discount, error) {
	var discounts []models.Discount
	err := r.db.Where("active = ? AND applicability_kind = ?", true, kind).
		Where("valid_from <= ? AND valid_to >= ?", now.UTC(), now.UTC()).
		Order("created_at DESC, id DESC").
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

// List 后台折扣列表
func (r *GormDiscountRepository) List(filter DiscountListFilter) ([]models.Discount, int64, error) {
	query := r.db.Model(&models.Discount{})
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		query = query.Where("applicability_kind = ?", kind)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"code"})
		query = query.Where(condition, repeatLikeArgs("%"+code+"%", argCount)...)
	}
	if filter.IsActive != nil {
		query = query.Where("active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var discounts []models.Discount
	if err := query.Order("created_at DESC, id DESC").Find(&discounts).Error; err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

// Create 创建折扣码
func (r *GormDiscountRepository) Create(discount *models.Discount) error {
	return r.db.Create(discount).Error
}

// Update 更新折扣码
func (r *GormDiscountRepository) Update(discount *models.Discount) error {
	return r.db.Save(discount).Error
}

// Delete 删除折扣码（软删除）
func (r *GormDiscountRepository) Delete(id uint) error {
	return r.db.Delete(&models.Discount{}, id).Error
}
