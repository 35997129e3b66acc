package service

import (
	"strings"
	"time"

	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/models"
	"github.com/partnerdesk/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethodService 提现支付方式与校验引擎业务服务
type PaymentMethodService struct {
	methodRepo    repository.PaymentMethodRepository
	payoutRepo    repository.PayoutRepository
	affiliateRepo repository.AffiliateRepository
}

// NewPaymentMethodService 创建支付方式服务
func NewPaymentMethodService(
	methodRepo repository.PaymentMethodRepository,
	payoutRepo repository.PayoutRepository,
	affiliateRepo repository.AffiliateRepository,
) *PaymentMethodService {
	return &PaymentMethodService{
		methodRepo:    methodRepo,
		payoutRepo:    payoutRepo,
		affiliateRepo: affiliateRepo,
	}
}

// FeeBreakdown 手续费明细。百分比部分仅作明细展示，
// 实际收取的 TotalFee 只含固定手续费并受上下限约束。
type FeeBreakdown struct {
	FixedFee   models.Money `json:"fixed_fee"`
	PercentFee models.Money `json:"percent_fee"`
	TotalFee   models.Money `json:"total_fee"`
	NetAmount  models.Money `json:"net_amount"`
}

// ValidationIssue 单条校验失败明细
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult 提现校验结果；所有未通过项一次性返回
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues"`
	Fees   *FeeBreakdown     `json:"fees"`
}

// PaymentMethodUpsertInput 支付方式创建/更新输入
type PaymentMethodUpsertInput struct {
	Name                string
	Code                string
	Status              string
	SupportedCurrencies []string
	MinAmount           decimal.Decimal
	MaxAmount           decimal.Decimal
	FixedFee            decimal.Decimal
	PercentFee          decimal.Decimal
	MinFee              decimal.Decimal
	MaxFee              decimal.Decimal
	DailyLimit          decimal.Decimal
	MonthlyLimit        decimal.Decimal
	RequireKYC          bool
	RequireBankAccount  bool
	RequireTaxID        bool
	RequireAddress      bool
	RequirePhone        bool
	ProcessingDays      int
	Description         string
	Icon                string
}

// MethodHealth 支付方式健康度
type MethodHealth struct {
	Method          models.PaymentMethod `json:"method"`
	ProfileCount    int64                `json:"profile_count"`
	TxCount         int64                `json:"tx_count"`
	AvgSuccessRate  models.Money         `json:"avg_success_rate"`
	AvgProcessHours models.Money         `json:"avg_processing_hours"`
	CompletedCount  int64                `json:"completed_count"`
	FailedCount     int64                `json:"failed_count"`
}

// MethodUsageStats 支付方式使用统计
type MethodUsageStats struct {
	Method       models.PaymentMethod        `json:"method"`
	ProfileCount int64                       `json:"profile_count"`
	TxCount      int64                       `json:"tx_count"`
	TotalAmount  models.Money                `json:"total_amount"`
	TopUsages    []models.PaymentMethodUsage `json:"top_usages"`
}

// MethodComparisonItem 支付方式横向对比条目
type MethodComparisonItem struct {
	Method          models.PaymentMethod `json:"method"`
	Fees            FeeBreakdown         `json:"fees"`
	AvgSuccessRate  models.Money         `json:"avg_success_rate"`
	AvgProcessHours models.Money         `json:"avg_processing_hours"`
	ProcessingDays  int                  `json:"processing_days"`
}

// ListMethods 查询支付方式列表
func (s *PaymentMethodService) ListMethods(filter repository.PaymentMethodListFilter) ([]models.PaymentMethod, int64, error) {
	if s.methodRepo == nil {
		return []models.PaymentMethod{}, 0, nil
	}
	return s.methodRepo.ListMethods(filter)
}

// GetMethod 按ID获取支付方式
func (s *PaymentMethodService) GetMethod(id uint) (*models.PaymentMethod, error) {
	if s.methodRepo == nil {
		return nil, ErrNotFound
	}
	method, err := s.methodRepo.GetMethodByID(id)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, ErrNotFound
	}
	return method, nil
}

// CreateMethod 创建支付方式
func (s *PaymentMethodService) CreateMethod(input PaymentMethodUpsertInput) (*models.PaymentMethod, error) {
	if s.methodRepo == nil {
		return nil, ErrNotFound
	}
	code := strings.ToLower(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, ErrPaymentMethodStatusInvalid
	}
	existing, err := s.methodRepo.GetMethodByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPaymentMethodCodeExists
	}

	method := &models.PaymentMethod{}
	applyMethodInput(method, name, code, input)
	if err := s.methodRepo.CreateMethod(method); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPaymentMethodCodeExists
		}
		return nil, err
	}
	return method, nil
}

// UpdateMethod 更新支付方式
func (s *PaymentMethodService) UpdateMethod(id uint, input PaymentMethodUpsertInput) (*models.PaymentMethod, error) {
	method, err := s.GetMethod(id)
	if err != nil {
		return nil, err
	}
	code := strings.ToLower(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, ErrPaymentMethodStatusInvalid
	}
	if code != method.Code {
		existing, err := s.methodRepo.GetMethodByCode(code)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != method.ID {
			return nil, ErrPaymentMethodCodeExists
		}
	}

	applyMethodInput(method, name, code, input)
	if err := s.methodRepo.UpdateMethod(method); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPaymentMethodCodeExists
		}
		return nil, err
	}
	return method, nil
}

// SetMethodStatus 更新支付方式状态
func (s *PaymentMethodService) SetMethodStatus(id uint, status string) error {
	method, err := s.GetMethod(id)
	if err != nil {
		return err
	}
	normalized := strings.ToLower(strings.TrimSpace(status))
	switch normalized {
	case constants.PaymentMethodStatusActive,
		constants.PaymentMethodStatusInactive,
		constants.PaymentMethodStatusSuspended:
	default:
		return ErrPaymentMethodStatusInvalid
	}
	return s.methodRepo.UpdateMethodStatus(method.ID, normalized)
}

// CalculateFees 计算提现手续费明细
func (s *PaymentMethodService) CalculateFees(methodID uint, amount decimal.Decimal) (*FeeBreakdown, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPayoutAmountInvalid
	}
	method, err := s.GetMethod(methodID)
	if err != nil {
		return nil, err
	}
	fees := calculateMethodFees(method, amount)
	return &fees, nil
}

// ValidatePayment 校验一笔提现。除支付方式不存在直接报错外，
// 所有检查全部执行并聚合返回，便于一次性展示全部问题。
// 方法为只读，重复校验结果一致。
func (s *PaymentMethodService) ValidatePayment(profileID, methodID uint, amount decimal.Decimal, currency string) (*ValidationResult, error) {
	method, err := s.GetMethod(methodID)
	if err != nil {
		return nil, err
	}
	if s.affiliateRepo == nil || s.payoutRepo == nil {
		return nil, ErrNotFound
	}
	profile, err := s.affiliateRepo.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return s.validateWithRepos(s.payoutRepo, method, profile, amount, currency)
}

// validateWithRepos 使用指定仓储执行校验；提现落库场景在事务内复用
func (s *PaymentMethodService) validateWithRepos(
	payoutRepo repository.PayoutRepository,
	method *models.PaymentMethod,
	profile *models.AffiliateProfile,
	amount decimal.Decimal,
	currency string,
) (*ValidationResult, error) {
	issues := make([]ValidationIssue, 0)

	if method.Status != constants.PaymentMethodStatusActive {
		issues = append(issues, ValidationIssue{
			Code:    "method_inactive",
			Message: "payment method is not active",
		})
	}

	normalizedCurrency := strings.ToUpper(strings.TrimSpace(currency))
	if !containsCurrency(method.SupportedCurrencies, normalizedCurrency) {
		issues = append(issues, ValidationIssue{
			Code:    "currency_unsupported",
			Message: "currency is not supported by this method",
		})
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		issues = append(issues, ValidationIssue{
			Code:    "amount_invalid",
			Message: "amount must be positive",
		})
	}
	if method.MinAmount.Decimal.GreaterThan(decimal.Zero) && amount.LessThan(method.MinAmount.Decimal) {
		issues = append(issues, ValidationIssue{
			Code:    "amount_below_minimum",
			Message: "amount is below the method minimum",
		})
	}
	if method.MaxAmount.Decimal.GreaterThan(decimal.Zero) && amount.GreaterThan(method.MaxAmount.Decimal) {
		issues = append(issues, ValidationIssue{
			Code:    "amount_above_maximum",
			Message: "amount is above the method maximum",
		})
	}

	now := time.Now().UTC()
	if method.DailyLimit.Decimal.GreaterThan(decimal.Zero) {
		used, err := payoutRepo.SumWindowAmountSince(profile.ID, method.ID, utcDayStart(now))
		if err != nil {
			return nil, err
		}
		if used.Add(amount).GreaterThan(method.DailyLimit.Decimal) {
			issues = append(issues, ValidationIssue{
				Code:    "daily_limit_exceeded",
				Message: "daily payout limit exceeded",
			})
		}
	}
	if method.MonthlyLimit.Decimal.GreaterThan(decimal.Zero) {
		used, err := payoutRepo.SumWindowAmountSince(profile.ID, method.ID, utcMonthStart(now))
		if err != nil {
			return nil, err
		}
		if used.Add(amount).GreaterThan(method.MonthlyLimit.Decimal) {
			issues = append(issues, ValidationIssue{
				Code:    "monthly_limit_exceeded",
				Message: "monthly payout limit exceeded",
			})
		}
	}

	if method.RequireKYC && !profile.KYCVerified {
		issues = append(issues, ValidationIssue{Code: "kyc_required", Message: "KYC verification required"})
	}
	if method.RequireBankAccount && strings.TrimSpace(profile.BankAccount) == "" {
		issues = append(issues, ValidationIssue{Code: "bank_account_required", Message: "bank account required"})
	}
	if method.RequireTaxID && strings.TrimSpace(profile.TaxID) == "" {
		issues = append(issues, ValidationIssue{Code: "tax_id_required", Message: "tax id required"})
	}
	if method.RequireAddress && strings.TrimSpace(profile.Address) == "" {
		issues = append(issues, ValidationIssue{Code: "address_required", Message: "address required"})
	}
	if method.RequirePhone && strings.TrimSpace(profile.Phone) == "" {
		issues = append(issues, ValidationIssue{Code: "phone_required", Message: "phone required"})
	}

	fees := calculateMethodFees(method, amount)
	return &ValidationResult{
		Valid:  len(issues) == 0,
		Issues: issues,
		Fees:   &fees,
	}, nil
}

// RecordUsage 记录一次提现结果。事务内锁定使用统计行后按笔数
// 加权刷新成功率与平均处理时长，同一档案同一方式的并发更新串行执行。
func (s *PaymentMethodService) RecordUsage(profileID, methodID uint, amount decimal.Decimal, success bool, processingHours decimal.Decimal) error {
	if s.methodRepo == nil {
		return ErrNotFound
	}
	method, err := s.GetMethod(methodID)
	if err != nil {
		return err
	}
	if profileID == 0 {
		return ErrNotFound
	}

	sample := decimal.Zero
	if success {
		sample = decimalHundred
	}
	if processingHours.IsNegative() {
		processingHours = decimal.Zero
	}

	return s.methodRepo.Transaction(func(tx *gorm.DB) error {
		methodTx := s.methodRepo.WithTx(tx)
		now := time.Now()

		usage, err := methodTx.GetUsageForUpdate(profileID, method.ID)
		if err != nil {
			return err
		}
		if usage == nil {
			usage = &models.PaymentMethodUsage{
				ProfileID:          profileID,
				MethodID:           method.ID,
				TxCount:            1,
				TotalAmount:        models.NewMoneyFromDecimal(amount),
				SuccessRate:        models.NewMoneyFromDecimal(sample),
				AvgProcessingHours: models.NewMoneyFromDecimal(processingHours),
				LastUsedAt:         &now,
			}
			return methodTx.CreateUsage(usage)
		}

		oldCount := decimal.NewFromInt(usage.TxCount)
		newCount := decimal.NewFromInt(usage.TxCount + 1)

		usage.SuccessRate = models.NewMoneyFromDecimal(
			usage.SuccessRate.Decimal.Mul(oldCount).Add(sample).Div(newCount).Round(2))
		usage.AvgProcessingHours = models.NewMoneyFromDecimal(
			usage.AvgProcessingHours.Decimal.Mul(oldCount).Add(processingHours).Div(newCount).Round(2))
		usage.TxCount++
		usage.TotalAmount = models.NewMoneyFromDecimal(usage.TotalAmount.Decimal.Add(amount))
		usage.LastUsedAt = &now
		return methodTx.UpdateUsage(usage)
	})
}

// GetMethodHealth 查询支付方式健康度
func (s *PaymentMethodService) GetMethodHealth(methodID uint) (*MethodHealth, error) {
	method, err := s.GetMethod(methodID)
	if err != nil {
		return nil, err
	}
	aggregate, err := s.methodRepo.GetMethodUsageAggregate(method.ID)
	if err != nil {
		return nil, err
	}
	completed, err := s.payoutRepo.CountPayoutsByMethodAndStatus(method.ID, constants.PayoutStatusCompleted)
	if err != nil {
		return nil, err
	}
	failed, err := s.payoutRepo.CountPayoutsByMethodAndStatus(method.ID, constants.PayoutStatusFailed)
	if err != nil {
		return nil, err
	}
	return &MethodHealth{
		Method:          *method,
		ProfileCount:    aggregate.ProfileCount,
		TxCount:         aggregate.TxCount,
		AvgSuccessRate:  models.NewMoneyFromDecimal(aggregate.AvgSuccessRate),
		AvgProcessHours: models.NewMoneyFromDecimal(aggregate.AvgProcessHours),
		CompletedCount:  completed,
		FailedCount:     failed,
	}, nil
}

// GetMethodUsageStats 查询支付方式使用统计
func (s *PaymentMethodService) GetMethodUsageStats(methodID uint, topN int) (*MethodUsageStats, error) {
	method, err := s.GetMethod(methodID)
	if err != nil {
		return nil, err
	}
	aggregate, err := s.methodRepo.GetMethodUsageAggregate(method.ID)
	if err != nil {
		return nil, err
	}
	topUsages, err := s.methodRepo.ListTopUsagesByMethod(method.ID, topN)
	if err != nil {
		return nil, err
	}
	return &MethodUsageStats{
		Method:       *method,
		ProfileCount: aggregate.ProfileCount,
		TxCount:      aggregate.TxCount,
		TotalAmount:  models.NewMoneyFromDecimal(aggregate.TotalAmount),
		TopUsages:    topUsages,
	}, nil
}

// CompareMethods 按参考金额横向对比多个支付方式
func (s *PaymentMethodService) CompareMethods(methodIDs []uint, referenceAmount decimal.Decimal) ([]MethodComparisonItem, error) {
	if referenceAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPayoutAmountInvalid
	}
	items := make([]MethodComparisonItem, 0, len(methodIDs))
	for _, id := range methodIDs {
		method, err := s.GetMethod(id)
		if err != nil {
			return nil, err
		}
		aggregate, err := s.methodRepo.GetMethodUsageAggregate(method.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, MethodComparisonItem{
			Method:          *method,
			Fees:            calculateMethodFees(method, referenceAmount),
			AvgSuccessRate:  models.NewMoneyFromDecimal(aggregate.AvgSuccessRate),
			AvgProcessHours: models.NewMoneyFromDecimal(aggregate.AvgProcessHours),
			ProcessingDays:  method.ProcessingDays,
		})
	}
	return items, nil
}

// applyMethodInput 将输入写入模型，统一归一化
func applyMethodInput(method *models.PaymentMethod, name, code string, input PaymentMethodUpsertInput) {
	currencies := make(models.StringArray, 0, len(input.SupportedCurrencies))
	for _, item := range input.SupportedCurrencies {
		normalized := strings.ToUpper(strings.TrimSpace(item))
		if normalized == "" || currencies.Contains(normalized) {
			continue
		}
		currencies = append(currencies, normalized)
	}

	method.Name = name
	method.Code = code
	method.Status = normalizeMethodStatus(input.Status)
	method.SupportedCurrencies = currencies
	method.MinAmount = models.NewMoneyFromDecimal(input.MinAmount)
	method.MaxAmount = models.NewMoneyFromDecimal(input.MaxAmount)
	method.FixedFee = models.NewMoneyFromDecimal(input.FixedFee)
	method.PercentFee = models.NewMoneyFromDecimal(input.PercentFee)
	method.MinFee = models.NewMoneyFromDecimal(input.MinFee)
	method.MaxFee = models.NewMoneyFromDecimal(input.MaxFee)
	method.DailyLimit = models.NewMoneyFromDecimal(input.DailyLimit)
	method.MonthlyLimit = models.NewMoneyFromDecimal(input.MonthlyLimit)
	method.RequireKYC = input.RequireKYC
	method.RequireBankAccount = input.RequireBankAccount
	method.RequireTaxID = input.RequireTaxID
	method.RequireAddress = input.RequireAddress
	method.RequirePhone = input.RequirePhone
	method.ProcessingDays = input.ProcessingDays
	method.Description = strings.TrimSpace(input.Description)
	method.Icon = strings.TrimSpace(input.Icon)
}

func normalizeMethodStatus(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	switch normalized {
	case constants.PaymentMethodStatusInactive, constants.PaymentMethodStatusSuspended:
		return normalized
	default:
		return constants.PaymentMethodStatusActive
	}
}

// calculateMethodFees 按方式配置计算手续费。实收手续费以固定费起算，
// 百分比部分只进明细不计入实收；低于 MinFee 时补到 MinFee，否则再按
// MaxFee 截断（二者互斥，补最低价后不再截断）。MaxFee 配置为 0 时按
// 字面值截断到 0，与历史计费行为保持一致。
func calculateMethodFees(method *models.PaymentMethod, amount decimal.Decimal) FeeBreakdown {
	fixed := method.FixedFee.Decimal.Round(2)
	percent := amount.Mul(method.PercentFee.Decimal).Div(decimalHundred).Round(2)

	total := fixed
	if total.LessThan(method.MinFee.Decimal) {
		total = method.MinFee.Decimal
	} else if total.GreaterThan(method.MaxFee.Decimal) {
		total = method.MaxFee.Decimal
	}
	total = total.Round(2)

	return FeeBreakdown{
		FixedFee:   models.NewMoneyFromDecimal(fixed),
		PercentFee: models.NewMoneyFromDecimal(percent),
		TotalFee:   models.NewMoneyFromDecimal(total),
		NetAmount:  models.NewMoneyFromDecimal(amount.Sub(total)),
	}
}

func containsCurrency(supported models.StringArray, currency string) bool {
	if currency == "" {
		return false
	}
	for _, item := range supported {
		if strings.EqualFold(strings.TrimSpace(item), currency) {
			return true
		}
	}
	return false
}

// utcDayStart 当日 UTC 零点
func utcDayStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// utcMonthStart 当月 UTC 月首零点
func utcMonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
