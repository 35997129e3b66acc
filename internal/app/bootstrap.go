package app

import (
	"errors"

	"github.com/partnerdesk/internal/config"
	"github.com/partnerdesk/internal/provider"
	"github.com/partnerdesk/internal/router"
	"github.com/partnerdesk/internal/worker"
)

// BuildRunner 按运行模式组装服务：API 模式只起 HTTP，
// Worker 模式只起队列消费，All 两者都起
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		services = append(services, buildHTTPService(cfg, container))
	}

	if mode == ModeAll || mode == ModeWorker {
		workerService, err := buildWorkerService(cfg, container)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

func buildHTTPService(cfg *config.Config, container *provider.Container) Service {
	engine := router.SetupRouter(cfg, container)
	return NewHTTPService(cfg.Server.Host+":"+cfg.Server.Port, engine)
}

// buildWorkerService 组装 asynq 消费服务，层级重算的排期配置一并下发
func buildWorkerService(cfg *config.Config, container *provider.Container) (Service, error) {
	consumer := worker.NewConsumer(container)
	return worker.NewService(&cfg.Queue, cfg.Tier, consumer)
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
