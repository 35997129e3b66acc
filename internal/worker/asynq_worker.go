package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/partnerdesk/internal/logger"
	"github.com/partnerdesk/internal/provider"
	"github.com/partnerdesk/internal/queue"
	"github.com/partnerdesk/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPayoutProcess, c.handlePayoutProcess)
	mux.HandleFunc(queue.TaskTierRecheck, c.handleTierRecheck)
}

// handlePayoutProcess 处理提现流转：待处理置为处理中后直接完成。
// 若管理员已人工流转（取消/失败/完成），状态守卫会拒绝，任务按跳过处理。
func (c *Consumer) handlePayoutProcess(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payout_process_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PayoutProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payout_process_unmarshal_failed", "error", err)
		return err
	}
	if payload.PayoutID == 0 {
		logger.Debugw("worker_payout_process_skip_invalid_payload", "payout_id", payload.PayoutID)
		return nil
	}
	if c.PayoutService == nil {
		logger.Warnw("worker_payout_process_skip_payout_service_nil", "payout_id", payload.PayoutID)
		return nil
	}
	if err := c.PayoutService.MarkProcessing(payload.PayoutID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			logger.Debugw("worker_payout_process_skip_not_found", "payout_id", payload.PayoutID)
			return nil
		case errors.Is(err, service.ErrPayoutStatusInvalid):
			logger.Debugw("worker_payout_process_skip_invalid_status", "payout_id", payload.PayoutID)
			return nil
		default:
			logger.Warnw("worker_payout_process_mark_failed", "payout_id", payload.PayoutID, "error", err)
			return err
		}
	}
	if err := c.PayoutService.CompletePayout(payload.PayoutID); err != nil {
		switch {
		case errors.Is(err, service.ErrPayoutStatusInvalid):
			logger.Debugw("worker_payout_process_skip_complete_invalid_status", "payout_id", payload.PayoutID)
			return nil
		default:
			logger.Warnw("worker_payout_process_complete_failed", "payout_id", payload.PayoutID, "error", err)
			return err
		}
	}
	return nil
}

// handleTierRecheck 处理单档案等级资格复核
func (c *Consumer) handleTierRecheck(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_tier_recheck_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.TierRecheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_tier_recheck_unmarshal_failed", "error", err)
		return err
	}
	if payload.ProfileID == 0 {
		logger.Debugw("worker_tier_recheck_skip_invalid_payload", "profile_id", payload.ProfileID)
		return nil
	}
	if c.TierService == nil {
		logger.Warnw("worker_tier_recheck_skip_tier_service_nil", "profile_id", payload.ProfileID)
		return nil
	}
	if err := c.TierService.RecheckProfileTier(payload.ProfileID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			logger.Debugw("worker_tier_recheck_skip_profile_not_found", "profile_id", payload.ProfileID)
			return nil
		default:
			logger.Warnw("worker_tier_recheck_failed", "profile_id", payload.ProfileID, "error", err)
			return err
		}
	}
	return nil
}
