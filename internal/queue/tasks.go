package queue

import (
	"encoding/json"

	"github.com/imobiliare-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskExpirationSweep 到期扫描任务
	TaskExpirationSweep = constants.TaskExpirationSweep
	// TaskCleanupSweep 清理扫描任务
	TaskCleanupSweep = constants.TaskCleanupSweep
	// TaskExpirationReminderEmail 到期提醒邮件任务
	TaskExpirationReminderEmail = constants.TaskExpirationReminderEmail
	// TaskExpiredNoticeEmail 已到期通知邮件任务
	TaskExpiredNoticeEmail = constants.TaskExpiredNoticeEmail
	// TaskAnnouncementConfirmationEmail 上架确认邮件任务
	TaskAnnouncementConfirmationEmail = constants.TaskAnnouncementConfirmationEmail
)

// SweepPayload 扫描任务载荷
type SweepPayload struct {
	TriggeredBy string `json:"triggered_by"`
}

// AnnouncementEmailPayload 房源通知邮件任务载荷
type AnnouncementEmailPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Link     string `json:"link"`
	DaysLeft int    `json:"days_left,omitempty"`
}

// NewSweepTask 创建扫描任务
func NewSweepTask(taskType string, payload SweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// NewAnnouncementEmailTask 创建房源通知邮件任务
func NewAnnouncementEmailTask(taskType string, payload AnnouncementEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}
