package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 高优先级队列名称
	CriticalQueue = constants.QueueCritical
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client 队列客户端封装
type Client struct {
	client       enqueuer
	enabled      bool
	defaultQueue string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	opt := buildRedisOpt(cfg)
	client := asynq.NewClient(opt)
	return &Client{
		client:       client,
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueSweep 推送扫描任务（后台手动触发时使用）
func (c *Client) EnqueueSweep(ctx context.Context, taskType string, payload SweepPayload) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	task, err := NewSweepTask(taskType, payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(CriticalQueue), asynq.MaxRetry(1))
	return err
}

// SendExpirationReminder 推送到期提醒邮件任务
func (c *Client) SendExpirationReminder(ctx context.Context, email, name, link string, daysLeft int) error {
	return c.enqueueEmail(ctx, TaskExpirationReminderEmail, AnnouncementEmailPayload{
		Email:    email,
		Name:     name,
		Link:     link,
		DaysLeft: daysLeft,
	})
}

// SendExpiredNotice 推送已到期通知邮件任务
func (c *Client) SendExpiredNotice(ctx context.Context, email, name, link string) error {
	return c.enqueueEmail(ctx, TaskExpiredNoticeEmail, AnnouncementEmailPayload{
		Email: email,
		Name:  name,
		Link:  link,
	})
}

// SendAnnouncementConfirmation 推送上架确认邮件任务
func (c *Client) SendAnnouncementConfirmation(ctx context.Context, email, name, link string) error {
	return c.enqueueEmail(ctx, TaskAnnouncementConfirmationEmail, AnnouncementEmailPayload{
		Email: email,
		Name:  name,
		Link:  link,
	})
}

func (c *Client) enqueueEmail(ctx context.Context, taskType string, payload AnnouncementEmailPayload) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Email == "" {
		return fmt.Errorf("enqueue %s: empty recipient", taskType)
	}
	task, err := NewAnnouncementEmailTask(taskType, payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.defaultQueue), asynq.MaxRetry(5))
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1, CriticalQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
