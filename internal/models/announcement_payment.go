package models

import (
	"time"
)

// AnnouncementPayment 房源支付流水（仅追加）
type AnnouncementPayment struct {
	ID                  uint       `gorm:"primarykey" json:"id"`                                       // 主键
	AnnouncementID      uint       `gorm:"index;not null" json:"announcement_id"`                      // 房源ID
	PackageID           uint       `gorm:"index;not null" json:"package_id"`                           // 展示套餐ID
	PromotionID         *uint      `gorm:"index" json:"promotion_id"`                                  // 推广套餐ID
	DiscountID          *uint      `gorm:"index" json:"discount_id"`                                   // 展示套餐折扣ID
	PromotionDiscountID *uint      `gorm:"index" json:"promotion_discount_id"`                         // 推广套餐折扣ID
	Currency            string     `gorm:"type:varchar(10);not null" json:"currency"`                  // 币种
	Amount              Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                  // 实付金额
	OriginalAmount      *Money     `gorm:"type:decimal(20,2)" json:"original_amount"`                  // 折前金额
	DiscountAmount      *Money     `gorm:"type:decimal(20,2)" json:"discount_amount"`                  // 优惠金额
	StartDate           time.Time  `gorm:"index;not null" json:"start_date"`                           // 生效时间
	PackageEndDate      *time.Time `gorm:"index" json:"package_end_date"`                              // 展示到期时间
	PromotionEndDate    *time.Time `gorm:"index" json:"promotion_end_date"`                            // 推广到期时间
	Provider            string     `gorm:"type:varchar(20);not null;default:'stripe'" json:"provider"` // 支付来源
	ExternalTxnID       *string    `gorm:"uniqueIndex" json:"external_txn_id"`                         // 第三方交易号（幂等键）
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`                                    // 创建时间

	// 关联
	Package   *AnnouncementPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`     // 展示套餐
	Promotion *PromotionPackage    `gorm:"foreignKey:PromotionID" json:"promotion,omitempty"` // 推广套餐
	Discount  *Discount            `gorm:"foreignKey:DiscountID" json:"discount,omitempty"`   // 折扣
}

// TableName 指定表名
func (AnnouncementPayment) TableName() string {
	return "announcement_payments"
}
