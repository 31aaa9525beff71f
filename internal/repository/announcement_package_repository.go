package repository

import (
	"errors"
	"strings"

	"github.com/imobiliare-next/internal/models"

	"gorm.io/gorm"
)

// AnnouncementPackageRepository 展示套餐数据访问接口
type AnnouncementPackageRepository interface {
	GetByID(id uint) (*models.AnnouncementPackage, error)
	ListActive(audience string) ([]models.AnnouncementPackage, error)
	List(filter PackageListFilter) ([]models.AnnouncementPackage, int64, error)
	Create(pkg *models.AnnouncementPackage) error
	Update(pkg *models.AnnouncementPackage) error
	Delete(id uint) error
}

// GormAnnouncementPackageRepository GORM 实现
type GormAnnouncementPackageRepository struct {
	db *gorm.DB
}

// NewAnnouncementPackageRepository 创建展示套餐仓库
func NewAnnouncementPackageRepository(db *gorm.DB) *GormAnnouncementPackageRepository {
	return &GormAnnouncementPackageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAnnouncementPackageRepository) WithTx(tx *gorm.DB) *GormAnnouncementPackageRepository {
	if tx == nil {
		return r
	}
	return &GormAnnouncementPackageRepository{db: tx}
}

// GetByID 根据 ID 获取展示套餐
func (r *GormAnnouncementPackageRepository) GetByID(id uint) (*models.AnnouncementPackage, error) {
	var pkg models.AnnouncementPackage
	if err := r.db.First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// ListActive 获取上架套餐，audience 为空时返回全部受众
func (r *GormAnnouncementPackageRepository) ListActive(audience string) ([]models.AnnouncementPackage, error) {
	var packages []models.AnnouncementPackage
	query := r.db.Where("active = ?", true)
	if audience = strings.TrimSpace(audience); audience != "" {
		query = query.Where("audience = ?", audience)
	}
	if err := query.Order("sort_order DESC, price ASC, id ASC").Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

// List 后台套餐列表
func (r *GormAnnouncementPackageRepository) List(filter PackageListFilter) ([]models.AnnouncementPackage, int64, error) {
	query := r.db.Model(&models.AnnouncementPackage{})
	if audience := strings.TrimSpace(filter.Audience); audience != "" {
		query = query.Where("audience = ?", audience)
	}
	if filter.IsActive != nil {
		query = query.Where("active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var packages []models.AnnouncementPackage
	if err := query.Order("sort_order DESC, id DESC").Find(&packages).Error; err != nil {
		return nil, 0, err
	}
	return packages, total, nil
}

// Create 创建展示套餐
func (r *GormAnnouncementPackageRepository) Create(pkg *models.AnnouncementPackage) error {
	return r.db.Create(pkg).Error
}

// Update 更新展示套餐
func (r *GormAnnouncementPackageRepository) Update(pkg *models.AnnouncementPackage) error {
	return r.db.Save(pkg).Error
}

// Delete 删除展示套餐（软删除）
func (r *GormAnnouncementPackageRepository) Delete(id uint) error {
	return r.db.Delete(&models.AnnouncementPackage{}, id).Error
}
