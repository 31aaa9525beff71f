package constants

// 房源状态常量
const (
	AnnouncementStatusActive  = "active"
	AnnouncementStatusPending = "pending"
)

// 房源类型常量
const (
	AnnouncementTypeApartament = "apartament"
	AnnouncementTypeCasa       = "casa"
	AnnouncementTypeCasaTara   = "casa_tara"
	AnnouncementTypeTeren      = "teren"
	AnnouncementTypeComercial  = "comercial"
)

// 展示套餐类型常量
const (
	PackageTypeFree      = "free"
	PackageType7Days     = "7_days"
	PackageType15Days    = "15_days"
	PackageTypeUnlimited = "unlimited"
	PackageType3Months   = "3_months"
	PackageType6Months   = "6_months"
	PackageType12Months  = "12_months"
	PackageTypeAgency    = "agency"
)

// 推广套餐类型常量
const (
	PromotionType7Days  = "promote_7_days"
	PromotionType15Days = "promote_15_days"
	PromotionType30Days = "promote_30_days"
)

// 套餐目标受众常量
const (
	AudienceNormal   = "normal"
	AudienceEnsemble = "ensemble"
	AudienceAgency   = "agency"
)

// 折扣适用目录常量
const (
	DiscountKindPackage   = "package"
	DiscountKindPromotion = "promotion"
)

// 支付来源常量
const (
	PaymentProviderStripe = "stripe"
	PaymentProviderFree   = "free"
	PaymentProviderManual = "manual"
)

// 用户状态与角色常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
	UserRoleUser       = "user"
	UserRoleAgent      = "agent"
	UserRoleAdmin      = "admin"
)

// 媒体资源类型常量
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// 到期提醒天数
var ExpirationReminderDays = []int{3, 2, 1}

// 异步队列与任务常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskExpirationSweep               = "announcement:expiration_sweep"
	TaskCleanupSweep                  = "announcement:cleanup_sweep"
	TaskExpirationReminderEmail       = "announcement:expiration_reminder_email"
	TaskExpiredNoticeEmail            = "announcement:expired_notice_email"
	TaskAnnouncementConfirmationEmail = "announcement:confirmation_email"
)

// IsValidPackageType 判断展示套餐类型是否合法
func IsValidPackageType(value string) bool {
	switch value {
	case PackageTypeFree, PackageType7Days, PackageType15Days, PackageTypeUnlimited,
		PackageType3Months, PackageType6Months, PackageType12Months, PackageTypeAgency:
		return true
	}
	return false
}

// IsValidPromotionType 判断推广套餐类型是否合法
func IsValidPromotionType(value string) bool {
	switch value {
	case PromotionType7Days, PromotionType15Days, PromotionType30Days:
		return true
	}
	return false
}

// IsValidAudience 判断套餐受众是否合法
func IsValidAudience(value string) bool {
	switch value {
	case AudienceNormal, AudienceEnsemble, AudienceAgency:
		return true
	}
	return false
}
