package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/service"

	"github.com/robfig/cron/v3"
)

// ExpirationRunner 到期巡检
type ExpirationRunner interface {
	RunSweep(ctx context.Context, now time.Time) (service.SweepResult, error)
}

// CleanupRunner 过期房源清理
type CleanupRunner interface {
	RunSweep(ctx context.Context, now time.Time, retention time.Duration) (int, error)
}

// Service 进程内定时任务（队列未启用时替代 asynq 周期任务）
type Service struct {
	cron       *cron.Cron
	expiration ExpirationRunner
	cleanup    CleanupRunner
	retention  time.Duration
	now        func() time.Time
	ctx        context.Context
	cancel     context.CancelFunc
}

// New 创建定时任务服务并注册扫描任务
func New(schedule config.ScheduleConfig, expiration ExpirationRunner, cleanup CleanupRunner) (*Service, error) {
	if expiration == nil || cleanup == nil {
		return nil, errors.New("scheduler runners are required")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(schedule.Location()),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cron:       c,
		expiration: expiration,
		cleanup:    cleanup,
		retention:  schedule.CleanupRetention(),
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}

	if spec := strings.TrimSpace(schedule.ExpirationCron); spec != "" {
		if _, err := c.AddFunc(spec, s.runExpiration); err != nil {
			cancel()
			return nil, err
		}
		logger.Infow("scheduler_job_registered", "job", "expiration", "cron", spec)
	}
	if spec := strings.TrimSpace(schedule.CleanupCron); spec != "" {
		if _, err := c.AddFunc(spec, s.runCleanup); err != nil {
			cancel()
			return nil, err
		}
		logger.Infow("scheduler_job_registered", "job", "cleanup", "cron", spec)
	}
	return s, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "scheduler"
}

// Start 启动定时任务，阻塞直到 ctx 结束或 Stop
func (s *Service) Start(ctx context.Context) error {
	if s.ctx.Err() != nil {
		return nil
	}
	s.cron.Start()
	select {
	case <-ctx.Done():
	case <-s.ctx.Done():
	}
	return nil
}

// Stop 停止定时任务并等待运行中的扫描结束
func (s *Service) Stop(ctx context.Context) error {
	s.cancel()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) runExpiration() {
	result, err := s.expiration.RunSweep(s.ctx, s.now())
	if err != nil {
		logger.Errorw("scheduler_expiration_failed", "error", err)
		return
	}
	logger.Infow("scheduler_expiration_done", "checked", result.Checked, "expired", result.Expired, "demoted", result.Demoted)
}

func (s *Service) runCleanup() {
	deleted, err := s.cleanup.RunSweep(s.ctx, s.now(), s.retention)
	if err != nil {
		logger.Errorw("scheduler_cleanup_failed", "deleted", deleted, "error", err)
		return
	}
	logger.Infow("scheduler_cleanup_done", "deleted", deleted)
}

// cronLogger 将 cron 日志接入 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debugw("scheduler_"+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorw("scheduler_"+msg, append(keysAndValues, "error", err)...)
}
