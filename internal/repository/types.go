package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingFilter 公开房源查询条件
type ListingFilter struct {
	Page              int
	PageSize          int
	Cities            []string
	County            string
	AnnouncementTypes []string
	TransactionTypes  []string
	ProviderType      string
	UserID            uint
	Status            string
	Search            string
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	MinSurface        *float64
	MaxSurface        *float64
	Rooms             *int
	MinRooms          *int
	MaxRooms          *int
}

// AnnouncementPaymentListFilter 后台支付流水查询条件
type AnnouncementPaymentListFilter struct {
	Page           int
	PageSize       int
	AnnouncementID uint
	Provider       string
	OnlyPromotions bool
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// DiscountListFilter 后台折扣查询条件
type DiscountListFilter struct {
	Page     int
	PageSize int
	Kind     string
	Code     string
	IsActive *bool
}

// PackageListFilter 后台套餐查询条件
type PackageListFilter struct {
	Page     int
	PageSize int
	Audience string
	IsActive *bool
}
