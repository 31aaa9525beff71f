package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Announcement 房源信息表
type Announcement struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                           // 主键
	AnnouncementType string         `gorm:"type:varchar(30);not null;index" json:"announcement_type"`       // 房源类型
	ProviderType     string         `gorm:"type:varchar(30);default:''" json:"provider_type"`               // 发布方类型（owner/agency）
	TransactionType  string         `gorm:"type:varchar(30);not null;index" json:"transaction_type"`        // 交易类型（sale/rent）
	Title            string         `gorm:"not null" json:"title"`                                          // 标题
	Description      string         `gorm:"type:text" json:"description"`                                   // 描述
	City             string         `gorm:"type:varchar(120);not null;index" json:"city"`                   // 城市
	County           string         `gorm:"type:varchar(120);not null;default:'Cluj';index" json:"county"`  // 县
	Street           string         `gorm:"type:varchar(255);default:''" json:"street"`                     // 街道
	Price            Money          `gorm:"type:decimal(20,2);not null;default:0;index" json:"price"`       // 标价
	Currency         string         `gorm:"type:varchar(10);not null;default:'EUR'" json:"currency"`        // 币种
	Rooms            int            `gorm:"not null;default:0;index" json:"rooms"`                          // 房间数
	Surface          float64        `gorm:"not null;default:0;index" json:"surface"`                        // 使用面积
	LandSurface      float64        `gorm:"not null;default:0" json:"land_surface"`                         // 土地面积
	Status           string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"` // 状态（active/pending）
	IsPromoted       bool           `gorm:"not null;default:false;index" json:"is_promoted"`                // 是否推广中
	UserID           uint           `gorm:"index;not null" json:"user_id"`                                  // 发布用户ID
	AgencyID         *uint          `gorm:"index" json:"agency_id"`                                         // 中介ID
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt        time.Time      `json:"updated_at"`                                                     // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	// 关联
	User     *User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`             // 发布用户
	Agency   *Agency               `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`         // 中介
	Payments []AnnouncementPayment `gorm:"foreignKey:AnnouncementID" json:"payments,omitempty"` // 支付记录
}

// TableName 指定表名
func (Announcement) TableName() string {
	return "announcements"
}

// BeforeSave 显式指定的创建时间统一存为 UTC
func (a *Announcement) BeforeSave(tx *gorm.DB) error {
	if !a.CreatedAt.IsZero() {
		a.CreatedAt = a.CreatedAt.UTC()
	}
	return nil
}

// MediaFolder 媒体资源目录
func (a *Announcement) MediaFolder(root string) string {
	id := strconv.FormatUint(uint64(a.ID), 10)
	if root == "" {
		return "announcements/" + id
	}
	return root + "/" + id
}
