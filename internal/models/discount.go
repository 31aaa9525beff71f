package models

import (
	"time"

	"gorm.io/gorm"
)

// DiscountApplicability 折扣适用目录与类型集合
type DiscountApplicability struct {
	Kind  string      `gorm:"column:applicability_kind;type:varchar(20);not null;index" json:"kind"` // 目录（package/promotion）
	Types StringArray `gorm:"column:applicability_types;type:json" json:"types"`                     // 适用类型集合
}

// Covers 判断折扣是否覆盖指定目录与类型
func (a DiscountApplicability) Covers(kind, discountType string) bool {
	if a.Kind != kind || discountType == "" {
		return false
	}
	return a.Types.Contains(discountType)
}

// Discount 折扣码
type Discount struct {
	ID                uint                  `gorm:"primarykey" json:"id"`                      // 主键
	Code              string                `gorm:"uniqueIndex;not null" json:"code"`          // 折扣码
	Description       string                `gorm:"type:text" json:"description"`              // 说明
	Percentage        *Money                `gorm:"type:decimal(6,2)" json:"percentage"`       // 百分比（0-100，优先生效）
	FixedAmount       *Money                `gorm:"type:decimal(20,2)" json:"fixed_amount"`    // 固定减免金额
	ValidFrom         time.Time             `gorm:"index;not null" json:"valid_from"`          // 生效时间（含）
	ValidTo           time.Time             `gorm:"index;not null" json:"valid_to"`            // 失效时间（含）
	UsageLimit        *int                  `json:"usage_limit"`                               // 总使用上限（仅声明）
	UsagePerUserLimit *int                  `json:"usage_per_user_limit"`                      // 每人使用上限（仅声明）
	AllowedUserIDs    UintSet               `gorm:"type:json" json:"allowed_user_ids"`         // 允许的用户集合（空表示所有用户）
	Applicability     DiscountApplicability `gorm:"embedded" json:"applicability"`             // 适用范围
	Active            bool                  `gorm:"not null;default:true;index" json:"active"` // 是否启用
	CreatedAt         time.Time             `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt         time.Time             `json:"updated_at"`                                // 更新时间
	DeletedAt         gorm.DeletedAt        `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Discount) TableName() string {
	return "discounts"
}

// BeforeSave 有效期统一存为 UTC
func (d *Discount) BeforeSave(tx *gorm.DB) error {
	d.ValidFrom = d.ValidFrom.UTC()
	d.ValidTo = d.ValidTo.UTC()
	return nil
}

// EligibleAt 判断折扣在指定时间对用户与类型是否可用
func (d *Discount) EligibleAt(userID uint, kind, discountType string, now time.Time) bool {
	if d == nil || !d.Active {
		return false
	}
	if now.Before(d.ValidFrom) || now.After(d.ValidTo) {
		return false
	}
	if !d.Applicability.Covers(kind, discountType) {
		return false
	}
	if d.AllowedUserIDs != nil && !d.AllowedUserIDs.Has(userID) {
		return false
	}
	return true
}
