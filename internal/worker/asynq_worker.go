package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/provider"
	"github.com/imobiliare-next/internal/queue"
	"github.com/imobiliare-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	now func() time.Time
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
		now:       time.Now,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskExpirationSweep, c.handleExpirationSweep)
	mux.HandleFunc(queue.TaskCleanupSweep, c.handleCleanupSweep)
	mux.HandleFunc(queue.TaskExpirationReminderEmail, c.handleAnnouncementEmail)
	mux.HandleFunc(queue.TaskExpiredNoticeEmail, c.handleAnnouncementEmail)
	mux.HandleFunc(queue.TaskAnnouncementConfirmationEmail, c.handleAnnouncementEmail)
}

func (c *Consumer) handleExpirationSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.ExpirationService == nil {
		logger.Warnw("worker_expiration_sweep_skip_service_nil")
		return nil
	}
	payload := decodeSweepPayload(task)
	result, err := c.ExpirationService.RunSweep(ctx, c.now())
	if err != nil {
		logger.Warnw("worker_expiration_sweep_failed",
			"triggered_by", payload.TriggeredBy,
			"checked", result.Checked,
			"reminded", result.Reminded,
			"error", err,
		)
		// 重跑会重复发送已发出的提醒，交给下一次定时巡检
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	logger.Infow("worker_expiration_sweep_done",
		"triggered_by", payload.TriggeredBy,
		"checked", result.Checked,
		"expired", result.Expired,
		"demoted", result.Demoted,
	)
	return nil
}

func (c *Consumer) handleCleanupSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.CleanupService == nil {
		logger.Warnw("worker_cleanup_sweep_skip_service_nil")
		return nil
	}
	payload := decodeSweepPayload(task)
	deleted, err := c.CleanupService.RunSweep(ctx, c.now(), c.Config.Schedule.CleanupRetention())
	if err != nil {
		logger.Warnw("worker_cleanup_sweep_failed", "triggered_by", payload.TriggeredBy, "deleted", deleted, "error", err)
		return err
	}
	logger.Infow("worker_cleanup_sweep_done", "triggered_by", payload.TriggeredBy, "deleted", deleted)
	return nil
}

func decodeSweepPayload(task *asynq.Task) queue.SweepPayload {
	var payload queue.SweepPayload
	if task == nil || len(task.Payload()) == 0 {
		return payload
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Debugw("worker_sweep_payload_invalid", "task_type", task.Type(), "error", err)
	}
	return payload
}

func (c *Consumer) handleAnnouncementEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_announcement_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AnnouncementEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_announcement_email_unmarshal_failed", "task_type", task.Type(), "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	receiver := strings.TrimSpace(payload.Email)
	if receiver == "" {
		logger.Debugw("worker_announcement_email_skip_empty_receiver", "task_type", task.Type())
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_announcement_email_skip_email_service_nil", "task_type", task.Type())
		return nil
	}

	err := sendAnnouncementEmail(ctx, c.EmailService, task.Type(), payload)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
		logger.Debugw("worker_announcement_email_skip_disabled", "task_type", task.Type(), "error", err)
		return nil
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrEmailRecipientRejected):
		logger.Warnw("worker_announcement_email_rejected", "task_type", task.Type(), "receiver_email", receiver, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		logger.Warnw("worker_announcement_email_send_failed", "task_type", task.Type(), "receiver_email", receiver, "error", err)
		return err
	}
}

func sendAnnouncementEmail(ctx context.Context, notifier service.Notifier, taskType string, payload queue.AnnouncementEmailPayload) error {
	switch taskType {
	case queue.TaskExpirationReminderEmail:
		return notifier.SendExpirationReminder(ctx, payload.Email, payload.Name, payload.Link, payload.DaysLeft)
	case queue.TaskExpiredNoticeEmail:
		return notifier.SendExpiredNotice(ctx, payload.Email, payload.Name, payload.Link)
	case queue.TaskAnnouncementConfirmationEmail:
		return notifier.SendAnnouncementConfirmation(ctx, payload.Email, payload.Name, payload.Link)
	default:
		return fmt.Errorf("unknown announcement email task %q: %w", taskType, asynq.SkipRetry)
	}
}
