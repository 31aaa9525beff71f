package service

import (
	"context"
	"strconv"
	"strings"
)

// Notifier 房源通知发送方（邮件直发或异步队列）
type Notifier interface {
	SendExpirationReminder(ctx context.Context, email, name, link string, daysLeft int) error
	SendExpiredNotice(ctx context.Context, email, name, link string) error
	SendAnnouncementConfirmation(ctx context.Context, email, name, link string) error
}

// BuildRenewLink 续费链接
func BuildRenewLink(frontendURL string, announcementID uint) string {
	base := strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	return base + "/payment-packages?announcementId=" + strconv.FormatUint(uint64(announcementID), 10)
}

// BuildAnnouncementLink 房源详情链接
func BuildAnnouncementLink(frontendURL string, announcementID uint) string {
	base := strings.TrimRight(strings.TrimSpace(frontendURL), "/")
	return base + "/announcements/" + strconv.FormatUint(uint64(announcementID), 10)
}
