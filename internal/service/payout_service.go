package service

import (
	"strings"
	"time"

	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/logger"
	"github.com/partnerdesk/internal/models"
	"github.com/partnerdesk/internal/queue"
	"github.com/partnerdesk/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutService 提现业务服务
type PayoutService struct {
	payoutRepo     repository.PayoutRepository
	methodRepo     repository.PaymentMethodRepository
	affiliateRepo  repository.AffiliateRepository
	methodService  *PaymentMethodService
	settingService *SettingService
	queueClient    *queue.Client
	processDelay   time.Duration
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	payoutRepo repository.PayoutRepository,
	methodRepo repository.PaymentMethodRepository,
	affiliateRepo repository.AffiliateRepository,
	methodService *PaymentMethodService,
	settingService *SettingService,
	queueClient *queue.Client,
	processDelay time.Duration,
) *PayoutService {
	return &PayoutService{
		payoutRepo:     payoutRepo,
		methodRepo:     methodRepo,
		affiliateRepo:  affiliateRepo,
		methodService:  methodService,
		settingService: settingService,
		queueClient:    queueClient,
		processDelay:   processDelay,
	}
}

// PayoutRequestResult 提现申请结果；校验失败时 Payout 为空，
// Validation 携带全部失败明细
type PayoutRequestResult struct {
	Payout     *models.Payout    `json:"payout"`
	Validation *ValidationResult `json:"validation"`
}

// RequestPayout 发起提现。校验、限额窗口统计与流水落库在同一事务内，
// 事务先锁档案行，避免并发申请绕过限额。
func (s *PayoutService) RequestPayout(profileID, methodID uint, amount decimal.Decimal, currency string) (*PayoutRequestResult, error) {
	if s.payoutRepo == nil || s.methodRepo == nil || s.affiliateRepo == nil || s.methodService == nil {
		return nil, ErrNotFound
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPayoutAmountInvalid
	}

	method, err := s.methodService.GetMethod(methodID)
	if err != nil {
		return nil, err
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency, err = s.settingService.GetPayoutDefaultCurrency(constants.SiteCurrencyDefault)
		if err != nil {
			return nil, err
		}
	}

	result := &PayoutRequestResult{}
	err = s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		affTx := s.affiliateRepo.WithTx(tx)
		payoutTx := s.payoutRepo.WithTx(tx)

		profile, err := affTx.GetProfileByIDForUpdate(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrNotFound
		}
		if profile.Status != constants.AffiliateProfileStatusActive {
			return ErrAffiliateDisabled
		}

		validation, err := s.methodService.validateWithRepos(payoutTx, method, profile, amount, currency)
		if err != nil {
			return err
		}
		result.Validation = validation
		if !validation.Valid {
			return ErrPayoutValidationFailed
		}

		payout := &models.Payout{
			ProfileID:   profile.ID,
			MethodID:    method.ID,
			Amount:      models.NewMoneyFromDecimal(amount),
			Fee:         validation.Fees.TotalFee,
			NetAmount:   validation.Fees.NetAmount,
			Currency:    currency,
			Status:      constants.PayoutStatusPending,
			RequestedAt: time.Now(),
		}
		if err := payoutTx.CreatePayout(payout); err != nil {
			return err
		}
		result.Payout = payout
		return nil
	})
	if err != nil {
		if err == ErrPayoutValidationFailed {
			return result, err
		}
		return nil, err
	}

	if err := s.queueClient.EnqueuePayoutProcess(queue.PayoutProcessPayload{PayoutID: result.Payout.ID}, s.processDelay); err != nil {
		// 队列不可用不阻塞申请，留待定时任务兜底
		logger.Warnw("payout_enqueue_failed", "payout_id", result.Payout.ID, "error", err)
	}
	return result, nil
}

// MarkProcessing 将待处理提现置为处理中
func (s *PayoutService) MarkProcessing(payoutID uint) error {
	return s.transition(payoutID, []string{constants.PayoutStatusPending}, func(payout *models.Payout) {
		payout.Status = constants.PayoutStatusProcessing
	})
}

// CompletePayout 完成提现并回写使用统计
func (s *PayoutService) CompletePayout(payoutID uint) error {
	var completed *models.Payout
	err := s.transition(payoutID, []string{constants.PayoutStatusPending, constants.PayoutStatusProcessing}, func(payout *models.Payout) {
		now := time.Now()
		payout.Status = constants.PayoutStatusCompleted
		payout.CompletedAt = &now
		completed = payout
	})
	if err != nil {
		return err
	}

	hours := decimal.NewFromFloat(completed.CompletedAt.Sub(completed.RequestedAt).Hours()).Round(2)
	if err := s.methodService.RecordUsage(completed.ProfileID, completed.MethodID, completed.Amount.Decimal, true, hours); err != nil {
		logger.Warnw("payout_record_usage_failed", "payout_id", payoutID, "error", err)
	}
	return nil
}

// FailPayout 标记提现失败并回写使用统计
func (s *PayoutService) FailPayout(payoutID uint, reason string) error {
	var failed *models.Payout
	err := s.transition(payoutID, []string{constants.PayoutStatusPending, constants.PayoutStatusProcessing}, func(payout *models.Payout) {
		payout.Status = constants.PayoutStatusFailed
		payout.FailReason = strings.TrimSpace(reason)
		failed = payout
	})
	if err != nil {
		return err
	}

	hours := decimal.NewFromFloat(time.Since(failed.RequestedAt).Hours()).Round(2)
	if err := s.methodService.RecordUsage(failed.ProfileID, failed.MethodID, failed.Amount.Decimal, false, hours); err != nil {
		logger.Warnw("payout_record_usage_failed", "payout_id", payoutID, "error", err)
	}
	return nil
}

// CancelPayout 取消待处理提现；取消不计入使用统计
func (s *PayoutService) CancelPayout(payoutID uint) error {
	return s.transition(payoutID, []string{constants.PayoutStatusPending}, func(payout *models.Payout) {
		payout.Status = constants.PayoutStatusCancelled
	})
}

// transition 锁定流水行后执行状态迁移，非法前置状态拒绝
func (s *PayoutService) transition(payoutID uint, allowedStatuses []string, mutate func(*models.Payout)) error {
	if s.payoutRepo == nil {
		return ErrNotFound
	}
	return s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		payoutTx := s.payoutRepo.WithTx(tx)
		payout, err := payoutTx.GetPayoutByIDForUpdate(payoutID)
		if err != nil {
			return err
		}
		if payout == nil {
			return ErrNotFound
		}
		allowed := false
		for _, status := range allowedStatuses {
			if payout.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrPayoutStatusInvalid
		}
		mutate(payout)
		return payoutTx.UpdatePayout(payout)
	})
}

// GetPayout 查询提现流水
func (s *PayoutService) GetPayout(id uint) (*models.Payout, error) {
	if s.payoutRepo == nil {
		return nil, ErrNotFound
	}
	payout, err := s.payoutRepo.GetPayoutByID(id)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrNotFound
	}
	return payout, nil
}

// ListPayouts 查询提现流水列表
func (s *PayoutService) ListPayouts(filter repository.PayoutListFilter) ([]models.Payout, int64, error) {
	if s.payoutRepo == nil {
		return []models.Payout{}, 0, nil
	}
	return s.payoutRepo.ListPayouts(filter)
}
