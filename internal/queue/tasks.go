package queue

import (
	"encoding/json"

	"github.com/partnerdesk/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPayoutProcess 提现处理任务
	TaskPayoutProcess = constants.TaskPayoutProcess
	// TaskTierRecheck 等级资格复核任务
	TaskTierRecheck = constants.TaskTierRecheck
)

// PayoutProcessPayload 提现处理任务载荷
type PayoutProcessPayload struct {
	PayoutID uint `json:"payout_id"`
}

// TierRecheckPayload 等级资格复核任务载荷
type TierRecheckPayload struct {
	ProfileID uint `json:"profile_id"`
}

// NewPayoutProcessTask 创建提现处理任务
func NewPayoutProcessTask(payload PayoutProcessPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayoutProcess, body), nil
}

// NewTierRecheckTask 创建等级资格复核任务
func NewTierRecheckTask(payload TierRecheckPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTierRecheck, body), nil
}
