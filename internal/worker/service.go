package worker

import (
	"context"
	"errors"
	"time"

	"github.com/partnerdesk/internal/config"
	"github.com/partnerdesk/internal/logger"
	"github.com/partnerdesk/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultAutoAssignInterval = time.Hour
	defaultAutoAssignBatch    = 200
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer

	autoAssignInterval time.Duration
	autoAssignBatch    int
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, tierCfg config.TierConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	interval := time.Duration(tierCfg.AutoAssignIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = defaultAutoAssignInterval
	}
	batch := tierCfg.AutoAssignBatchSize
	if batch <= 0 {
		batch = defaultAutoAssignBatch
	}
	return &Service{
		name:               "worker",
		server:             server,
		mux:                mux,
		consumer:           consumer,
		autoAssignInterval: interval,
		autoAssignBatch:    batch,
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
	if s.consumer != nil && s.consumer.TierService != nil {
		go s.runTierAutoAssignLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runTierAutoAssignLoop 定时批量扫描档案并自动晋升，
// 兜底成交复核任务丢失的场景。
func (s *Service) runTierAutoAssignLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.TierService == nil {
		return
	}
	runOnce := func() {
		result, err := s.consumer.TierService.AutoAssignTiers(s.autoAssignBatch)
		if err != nil {
			logger.Warnw("worker_tier_auto_assign_failed", "error", err)
			return
		}
		if result != nil && (result.Assigned > 0 || len(result.Failures) > 0) {
			logger.Infow("worker_tier_auto_assign_done",
				"scanned", result.Scanned,
				"assigned", result.Assigned,
				"failed", len(result.Failures),
			)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.autoAssignInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
