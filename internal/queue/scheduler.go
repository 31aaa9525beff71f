package queue

import (
	"strings"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/logger"

	"github.com/hibiken/asynq"
)

// PeriodicEntry 周期任务定义
type PeriodicEntry struct {
	CronSpec string
	TaskType string
}

// PeriodicEntries 根据调度配置生成周期任务
func PeriodicEntries(schedule config.ScheduleConfig) []PeriodicEntry {
	entries := make([]PeriodicEntry, 0, 2)
	if spec := strings.TrimSpace(schedule.ExpirationCron); spec != "" {
		entries = append(entries, PeriodicEntry{CronSpec: spec, TaskType: TaskExpirationSweep})
	}
	if spec := strings.TrimSpace(schedule.CleanupCron); spec != "" {
		entries = append(entries, PeriodicEntry{CronSpec: spec, TaskType: TaskCleanupSweep})
	}
	return entries
}

// PeriodicScheduler 基于 asynq.Scheduler 的周期任务投递器
type PeriodicScheduler struct {
	scheduler *asynq.Scheduler
}

// NewPeriodicScheduler 创建周期任务投递器并注册扫描任务
func NewPeriodicScheduler(queueCfg *config.QueueConfig, schedule config.ScheduleConfig) (*PeriodicScheduler, error) {
	opt := buildRedisOpt(queueCfg)
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: schedule.Location(),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Warnw("periodic_task_enqueue_failed", "error", err)
				return
			}
			logger.Infow("periodic_task_enqueued", "task_type", info.Type, "task_id", info.ID)
		},
	})
	for _, entry := range PeriodicEntries(schedule) {
		task, err := NewSweepTask(entry.TaskType, SweepPayload{TriggeredBy: "schedule"})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(entry.CronSpec, task, asynq.Queue(CriticalQueue), asynq.MaxRetry(1)); err != nil {
			return nil, err
		}
		logger.Infow("periodic_task_registered", "task_type", entry.TaskType, "cron", entry.CronSpec)
	}
	return &PeriodicScheduler{scheduler: scheduler}, nil
}

// Start 启动调度（非阻塞）
func (s *PeriodicScheduler) Start() error {
	if s == nil || s.scheduler == nil {
		return nil
	}
	return s.scheduler.Start()
}

// Shutdown 停止调度
func (s *PeriodicScheduler) Shutdown() {
	if s == nil || s.scheduler == nil {
		return
	}
	s.scheduler.Shutdown()
}
