package models

import (
	"time"

	"gorm.io/gorm"
)

// AnnouncementPackage 房源展示套餐
type AnnouncementPackage struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                             // 主键
	Label        string         `gorm:"not null" json:"label"`                                            // 展示名称
	Price        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`               // 目录价
	Currency     string         `gorm:"type:varchar(10);not null;default:'EUR'" json:"currency"`          // 币种
	DurationDays *int           `json:"duration_days"`                                                    // 有效天数（空表示不限期）
	PackageType  string         `gorm:"type:varchar(30);not null;index" json:"package_type"`              // 套餐类型
	Audience     string         `gorm:"type:varchar(20);not null;default:'normal';index" json:"audience"` // 目标受众
	Active       bool           `gorm:"not null;default:true;index" json:"active"`                        // 是否上架
	SortOrder    int            `gorm:"not null;default:0" json:"sort_order"`                             // 排序权重
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                                       // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                                   // 软删除时间
}

// TableName 指定表名
func (AnnouncementPackage) TableName() string {
	return "announcement_packages"
}

// PromotionPackage 房源推广套餐
type PromotionPackage struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                    // 主键
	Label         string         `gorm:"not null" json:"label"`                                   // 展示名称
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`      // 目录价
	Currency      string         `gorm:"type:varchar(10);not null;default:'EUR'" json:"currency"` // 币种
	DurationDays  int            `gorm:"not null" json:"duration_days"`                           // 推广天数
	PromotionType string         `gorm:"type:varchar(30);not null;index" json:"promotion_type"`   // 推广类型
	Active        bool           `gorm:"not null;default:true;index" json:"active"`               // 是否上架
	SortOrder     int            `gorm:"not null;default:0" json:"sort_order"`                    // 排序权重
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                              // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (PromotionPackage) TableName() string {
	return "promotion_packages"
}
