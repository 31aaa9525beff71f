package repository

import (
	"errors"

	"github.com/imobiliare-next/internal/models"

	"gorm.io/gorm"
)

// PromotionPackageRepository 推广套餐数据访问接口
type PromotionPackageRepository interface {
	GetByID(id uint) (*models.PromotionPackage, error)
	ListActive() ([]models.PromotionPackage, error)
	List(filter PackageListFilter) ([]models.PromotionPackage, int64, error)
	Create(pkg *models.PromotionPackage) error
	Update(pkg *models.PromotionPackage) error
	Delete(id uint) error
}

// GormPromotionPackageRepository GORM 实现
type GormPromotionPackageRepository struct {
	db *gorm.DB
}

// NewPromotionPackageRepository 创建推广套餐仓库
func NewPromotionPackageRepository(db *gorm.DB) *GormPromotionPackageRepository {
	return &GormPromotionPackageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionPackageRepository) WithTx(tx *gorm.DB) *GormPromotionPackageRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionPackageRepository{db: tx}
}

// GetByID 根据 ID 获取推广套餐
func (r *GormPromotionPackageRepository) GetByID(id uint) (*models.PromotionPackage, error) {
	var pkg models.PromotionPackage
	if err := r.db.First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// ListActive 获取上架推广套餐
func (r *GormPromotionPackageRepository) ListActive() ([]models.PromotionPackage, error) {
	var packages []models.PromotionPackage
	if err := r.db.Where("active = ?", true).Order("sort_order DESC, duration_days ASC, id ASC").Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

// List 后台推广套餐列表
func (r *GormPromotionPackageRepository) List(filter PackageListFilter) ([]models.PromotionPackage, int64, error) {
	query := r.db.Model(&models.PromotionPackage{})
	if filter.IsActive != nil {
		query = query.Where("active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var packages []models.PromotionPackage
	if err := query.Order("sort_order DESC, id DESC").Find(&packages).Error; err != nil {
		return nil, 0, err
	}
	return packages, total, nil
}

// Create 创建推广套餐
func (r *GormPromotionPackageRepository) Create(pkg *models.PromotionPackage) error {
	return r.db.Create(pkg).Error
}

// Update 更新推广套餐
func (r *GormPromotionPackageRepository) Update(pkg *models.PromotionPackage) error {
	return r.db.Save(pkg).Error
}

// Delete 删除推广套餐（软删除）
func (r *GormPromotionPackageRepository) Delete(id uint) error {
	return r.db.Delete(&models.PromotionPackage{}, id).Error
}
