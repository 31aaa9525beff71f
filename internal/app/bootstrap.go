package app

import (
	"errors"
	"fmt"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/provider"
	"github.com/imobiliare-next/internal/router"
	"github.com/imobiliare-next/internal/scheduler"
	"github.com/imobiliare-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}
	if !ValidMode(mode) {
		return nil, nil, fmt.Errorf("unsupported mode %q", mode)
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// 队列启用时由 worker 执行周期扫描，否则进程内 cron 兜底
	useWorker := mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled)
	if useWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(cfg, consumer)
		if err != nil {
			container.Close()
			return nil, nil, err
		}
		services = append(services, workerService)
	}

	if mode == ModeScheduler || (mode == ModeAll && !cfg.Queue.Enabled) {
		cronService, err := scheduler.New(cfg.Schedule, container.ExpirationService, container.CleanupService)
		if err != nil {
			container.Close()
			return nil, nil, err
		}
		logger.Infow("app_cron_scheduler_enabled", "expiration_cron", cfg.Schedule.ExpirationCron, "cleanup_cron", cfg.Schedule.CleanupCron)
		services = append(services, cronService)
	}

	if len(services) == 0 {
		container.Close()
		return nil, nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, container, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	defer container.Close()

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
