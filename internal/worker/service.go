package worker

import (
	"context"
	"errors"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务（消费任务并投递周期扫描）
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *queue.PeriodicScheduler
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, queue.ErrQueueDisabled
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	serverCfg.Logger = asynqLogger{}
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler, err := queue.NewPeriodicScheduler(&cfg.Queue, cfg.Schedule)
	if err != nil {
		return nil, err
	}
	return &Service{
		name:      "worker",
		server:    server,
		mux:       mux,
		scheduler: scheduler,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.scheduler.Shutdown()
	s.server.Shutdown()
	return nil
}

// asynqLogger 将 asynq 内部日志接入 zap
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.S().Debug(args...) }
func (asynqLogger) Info(args ...interface{})  { logger.S().Info(args...) }
func (asynqLogger) Warn(args ...interface{})  { logger.S().Warn(args...) }
func (asynqLogger) Error(args ...interface{}) { logger.S().Error(args...) }
func (asynqLogger) Fatal(args ...interface{}) { logger.S().Fatal(args...) }
