package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User 用户表（身份由外部身份提供方签发）
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`                            // 主键
	FirebaseUID string         `gorm:"uniqueIndex;not null" json:"firebase_uid"`        // 外部身份 ID
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`               // 邮箱
	FirstName   string         `gorm:"default:''" json:"first_name"`                    // 名
	LastName    string         `gorm:"default:''" json:"last_name"`                     // 姓
	Phone       string         `gorm:"default:''" json:"phone"`                         // 联系电话
	Role        string         `gorm:"type:varchar(20);default:'user'" json:"role"`     // 角色（user/agent/admin）
	Status      string         `gorm:"type:varchar(20);default:'active'" json:"status"` // 账号状态
	AgencyID    *uint          `gorm:"index" json:"agency_id"`                          // 所属中介
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// DisplayName 邮件称呼
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	return strings.TrimSpace(u.Email)
}

// Agency 中介机构
type Agency struct {
	ID          uint           `gorm:"primarykey" json:"id"`           // 主键
	Name        string         `gorm:"not null" json:"name"`           // 名称
	Description string         `gorm:"type:text" json:"description"`   // 简介
	Image       string         `gorm:"type:varchar(500)" json:"image"` // 标志图片
	Link        string         `gorm:"type:varchar(500)" json:"link"`  // 官网链接
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`        // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                     // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                 // 软删除时间
}

// TableName 指定表名
func (Agency) TableName() string {
	return "agencies"
}
