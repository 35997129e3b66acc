package service

import (
	"strings"
	"time"

	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/logger"
	"github.com/partnerdesk/internal/models"
	"github.com/partnerdesk/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 无归属档案的等级序号哨兵，保证首个等级（含 level 0）可晋升
const tierLevelNone = -1

var decimalHundred = decimal.NewFromInt(100)

// TierService 等级引擎业务服务
type TierService struct {
	tierRepo      repository.TierRepository
	affiliateRepo repository.AffiliateRepository
}

// NewTierService 创建等级服务
func NewTierService(tierRepo repository.TierRepository, affiliateRepo repository.AffiliateRepository) *TierService {
	return &TierService{
		tierRepo:      tierRepo,
		affiliateRepo: affiliateRepo,
	}
}

// TierUpsertInput 等级创建/更新输入
type TierUpsertInput struct {
	Name           string
	Level          int
	Description    string
	CommissionRate decimal.Decimal
	MinReferrals   int64
	MinConversions int64
	MinClicks      int64
	MinEarnings    decimal.Decimal
	TimePeriodDays int
	Benefits       []string
	Color          string
	Icon           string
	Status         string
}

// TierProgressResult 等级进度计算结果
type TierProgressResult struct {
	Profile  *models.AffiliateProfile `json:"profile"`
	Current  *models.Tier             `json:"current_tier"`
	Next     *models.Tier             `json:"next_tier"`
	Progress *models.TierProgress     `json:"progress"`
}

// TierStatsItem 等级统计条目
type TierStatsItem struct {
	Tier             models.Tier     `json:"tier"`
	AffiliateCount   int64           `json:"affiliate_count"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	TotalConversions int64           `json:"total_conversions"`
}

// TierEligibility 晋升资格评估结果
type TierEligibility struct {
	Eligible bool         `json:"eligible"`
	Tier     *models.Tier `json:"tier,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

const eligibilityReasonNotMet = "requirements not met"

// AutoAssignFailure 批量晋升中单个档案的失败记录
type AutoAssignFailure struct {
	ProfileID uint   `json:"profile_id"`
	Error     string `json:"error"`
}

// AutoAssignResult 批量晋升结果
type AutoAssignResult struct {
	Scanned  int                 `json:"scanned"`
	Assigned int                 `json:"assigned"`
	Failures []AutoAssignFailure `json:"failures"`
}

// ListTiers 查询等级列表
func (s *TierService) ListTiers(filter repository.TierListFilter) ([]models.Tier, int64, error) {
	if s.tierRepo == nil {
		return []models.Tier{}, 0, nil
	}
	return s.tierRepo.ListTiers(filter)
}

// GetTier 按ID获取等级
func (s *TierService) GetTier(id uint) (*models.Tier, error) {
	if s.tierRepo == nil {
		return nil, ErrNotFound
	}
	tier, err := s.tierRepo.GetTierByID(id)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, ErrNotFound
	}
	return tier, nil
}

// CreateTier 创建等级
func (s *TierService) CreateTier(input TierUpsertInput) (*models.Tier, error) {
	if s.tierRepo == nil {
		return nil, ErrNotFound
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Level < 0 {
		return nil, ErrTierLevelInvalid
	}

	existing, err := s.tierRepo.GetTierByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTierNameExists
	}

	tier := &models.Tier{
		Name:           name,
		Level:          input.Level,
		Description:    strings.TrimSpace(input.Description),
		CommissionRate: models.NewMoneyFromDecimal(input.CommissionRate),
		MinReferrals:   input.MinReferrals,
		MinConversions: input.MinConversions,
		MinClicks:      input.MinClicks,
		MinEarnings:    models.NewMoneyFromDecimal(input.MinEarnings),
		TimePeriodDays: input.TimePeriodDays,
		Benefits:       models.StringArray(input.Benefits),
		Color:          strings.TrimSpace(input.Color),
		Icon:           strings.TrimSpace(input.Icon),
		Status:         normalizeTierStatus(input.Status),
	}
	if err := s.tierRepo.CreateTier(tier); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTierLevelExists
		}
		return nil, err
	}
	return tier, nil
}

// UpdateTier 更新等级
func (s *TierService) UpdateTier(id uint, input TierUpsertInput) (*models.Tier, error) {
	tier, err := s.GetTier(id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Level < 0 {
		return nil, ErrTierLevelInvalid
	}
	if name != tier.Name {
		existing, err := s.tierRepo.GetTierByName(name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != tier.ID {
			return nil, ErrTierNameExists
		}
	}

	tier.Name = name
	tier.Level = input.Level
	tier.Description = strings.TrimSpace(input.Description)
	tier.CommissionRate = models.NewMoneyFromDecimal(input.CommissionRate)
	tier.MinReferrals = input.MinReferrals
	tier.MinConversions = input.MinConversions
	tier.MinClicks = input.MinClicks
	tier.MinEarnings = models.NewMoneyFromDecimal(input.MinEarnings)
	tier.TimePeriodDays = input.TimePeriodDays
	tier.Benefits = models.StringArray(input.Benefits)
	tier.Color = strings.TrimSpace(input.Color)
	tier.Icon = strings.TrimSpace(input.Icon)
	tier.Status = normalizeTierStatus(input.Status)

	if err := s.tierRepo.UpdateTier(tier); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTierLevelExists
		}
		return nil, err
	}
	return tier, nil
}

// DeleteTier 删除等级；仍有生效归属时拒绝
func (s *TierService) DeleteTier(id uint) error {
	tier, err := s.GetTier(id)
	if err != nil {
		return err
	}
	activeCount, err := s.tierRepo.CountActiveAssignmentsByTier(tier.ID)
	if err != nil {
		return err
	}
	if activeCount > 0 {
		return ErrTierInUse
	}
	return s.tierRepo.DeleteTier(tier.ID)
}

// GetActiveAssignment 查询档案当前生效的等级归属
func (s *TierService) GetActiveAssignment(profileID uint) (*models.TierAssignment, error) {
	if s.tierRepo == nil {
		return nil, nil
	}
	return s.tierRepo.GetActiveAssignment(profileID)
}

// ListAssignments 查询等级归属记录
func (s *TierService) ListAssignments(filter repository.TierAssignmentListFilter) ([]models.TierAssignment, int64, error) {
	if s.tierRepo == nil {
		return []models.TierAssignment{}, 0, nil
	}
	return s.tierRepo.ListAssignments(filter)
}

// AssignTier 给档案指派等级。事务内先锁档案行，保证同一档案的
// 归属变更串行执行，任意时刻最多一条生效归属。重复指派当前等级为幂等空操作。
func (s *TierService) AssignTier(profileID, tierID uint, reason string) (*models.TierAssignment, error) {
	if s.tierRepo == nil || s.affiliateRepo == nil {
		return nil, ErrNotFound
	}

	tier, err := s.tierRepo.GetTierByID(tierID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, ErrNotFound
	}
	if tier.Status != constants.TierStatusActive {
		return nil, ErrTierInactive
	}

	var assignment *models.TierAssignment
	err = s.affiliateRepo.Transaction(func(tx *gorm.DB) error {
		affTx := s.affiliateRepo.WithTx(tx)
		tierTx := s.tierRepo.WithTx(tx)

		profile, err := affTx.GetProfileByIDForUpdate(profileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrNotFound
		}

		current, err := tierTx.GetActiveAssignment(profileID)
		if err != nil {
			return err
		}
		if current != nil && current.TierID == tier.ID {
			assignment = current
			return nil
		}

		now := time.Now()
		if err := tierTx.ExpireActiveAssignments(profileID, now); err != nil {
			return err
		}

		assignment = &models.TierAssignment{
			ProfileID:  profileID,
			TierID:     tier.ID,
			Status:     constants.TierAssignmentStatusActive,
			AssignedAt: now,
			Reason:     strings.TrimSpace(reason),
		}
		return tierTx.CreateAssignment(assignment)
	})
	if err != nil {
		return nil, err
	}
	assignment.Tier = *tier
	return assignment, nil
}

// CalculateTierProgress 计算档案的等级进度并刷新快照。
// 各维度按下一等级门槛计算达成率，门槛为 0 的维度记 100；
// 综合进度为四个维度的简单平均。已处于最高等级时综合进度为 100。
func (s *TierService) CalculateTierProgress(profileID uint) (*TierProgressResult, error) {
	if s.tierRepo == nil || s.affiliateRepo == nil {
		return nil, ErrNotFound
	}
	profile, err := s.affiliateRepo.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}

	currentLevel := tierLevelNone
	var currentTier *models.Tier
	assignment, err := s.tierRepo.GetActiveAssignment(profileID)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		tier := assignment.Tier
		currentTier = &tier
		currentLevel = tier.Level
	}

	nextTier, err := s.tierRepo.GetNextTierAbove(currentLevel)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	progress := &models.TierProgress{
		ProfileID:  profileID,
		ComputedAt: now,
	}
	if currentTier != nil {
		progress.TierID = currentTier.ID
	}

	if nextTier == nil {
		// 已是最高等级，各维度视为达成
		progress.ReferralsRatio = models.NewMoneyFromDecimal(decimalHundred)
		progress.ConversionsRatio = models.NewMoneyFromDecimal(decimalHundred)
		progress.ClicksRatio = models.NewMoneyFromDecimal(decimalHundred)
		progress.EarningsRatio = models.NewMoneyFromDecimal(decimalHundred)
		progress.OverallProgress = models.NewMoneyFromDecimal(decimalHundred)
	} else {
		progress.NextTierID = nextTier.ID
		referrals := progressRatio(decimal.NewFromInt(profile.TotalReferrals), decimal.NewFromInt(nextTier.MinReferrals))
		conversions := progressRatio(decimal.NewFromInt(profile.TotalConversions), decimal.NewFromInt(nextTier.MinConversions))
		clicks := progressRatio(decimal.NewFromInt(profile.TotalClicks), decimal.NewFromInt(nextTier.MinClicks))
		earnings := progressRatio(profile.TotalEarnings.Decimal, nextTier.MinEarnings.Decimal)

		overall := referrals.Add(conversions).Add(clicks).Add(earnings).
			Div(decimal.NewFromInt(4)).Round(2)

		progress.ReferralsRatio = models.NewMoneyFromDecimal(referrals)
		progress.ConversionsRatio = models.NewMoneyFromDecimal(conversions)
		progress.ClicksRatio = models.NewMoneyFromDecimal(clicks)
		progress.EarningsRatio = models.NewMoneyFromDecimal(earnings)
		progress.OverallProgress = models.NewMoneyFromDecimal(overall)
	}

	if err := s.tierRepo.UpsertProgress(progress); err != nil {
		return nil, err
	}
	return &TierProgressResult{
		Profile:  profile,
		Current:  currentTier,
		Next:     nextTier,
		Progress: progress,
	}, nil
}

// CheckTierEligibility 从最高等级向下扫描，返回档案够格的最高等级。
// 只比较点击、成交、收益三个维度；邀请门槛仅用于进度展示，
// 不作为晋升条件。低于或等于当前等级的档位直接跳过；
// 没有够格档位时返回 Eligible=false 及原因说明。
func (s *TierService) CheckTierEligibility(profileID uint) (*TierEligibility, error) {
	if s.tierRepo == nil || s.affiliateRepo == nil {
		return nil, ErrNotFound
	}
	profile, err := s.affiliateRepo.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}

	currentLevel := tierLevelNone
	assignment, err := s.tierRepo.GetActiveAssignment(profileID)
	if err != nil {
		return nil, err
	}
	if assignment != nil {
		currentLevel = assignment.Tier.Level
	}

	tiers, err := s.tierRepo.ListTiersByLevelDesc(constants.TierStatusActive)
	if err != nil {
		return nil, err
	}
	for i := range tiers {
		tier := tiers[i]
		if tier.Level <= currentLevel {
			continue
		}
		if profile.TotalClicks < tier.MinClicks {
			continue
		}
		if profile.TotalConversions < tier.MinConversions {
			continue
		}
		if profile.TotalEarnings.Decimal.LessThan(tier.MinEarnings.Decimal) {
			continue
		}
		return &TierEligibility{Eligible: true, Tier: &tier}, nil
	}
	return &TierEligibility{Eligible: false, Reason: eligibilityReasonNotMet}, nil
}

// AutoAssignTiers 批量扫描启用档案并自动晋升。单个档案失败不影响
// 其余档案，失败明细聚合在结果中返回。只升不降。
func (s *TierService) AutoAssignTiers(batchSize int) (*AutoAssignResult, error) {
	if s.tierRepo == nil || s.affiliateRepo == nil {
		return nil, ErrNotFound
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	result := &AutoAssignResult{Failures: make([]AutoAssignFailure, 0)}
	var afterID uint
	for {
		ids, err := s.affiliateRepo.ListActiveProfileIDs(afterID, batchSize)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			result.Scanned++
			eligibility, err := s.CheckTierEligibility(id)
			if err != nil {
				result.Failures = append(result.Failures, AutoAssignFailure{ProfileID: id, Error: err.Error()})
				continue
			}
			if !eligibility.Eligible {
				continue
			}
			if _, err := s.AssignTier(id, eligibility.Tier.ID, constants.TierAssignReasonAuto); err != nil {
				result.Failures = append(result.Failures, AutoAssignFailure{ProfileID: id, Error: err.Error()})
				continue
			}
			result.Assigned++
		}
		afterID = ids[len(ids)-1]
	}

	if len(result.Failures) > 0 {
		logger.Warnw("tier_auto_assign_partial_failures",
			"scanned", result.Scanned,
			"assigned", result.Assigned,
			"failed", len(result.Failures),
		)
	}
	return result, nil
}

// RecheckProfileTier 单档案资格复核，够格即自动晋升
func (s *TierService) RecheckProfileTier(profileID uint) error {
	eligibility, err := s.CheckTierEligibility(profileID)
	if err != nil {
		return err
	}
	if !eligibility.Eligible {
		return nil
	}
	_, err = s.AssignTier(profileID, eligibility.Tier.ID, constants.TierAssignReasonAuto)
	return err
}

// GetTierStats 查询各等级的档案数与业绩统计
func (s *TierService) GetTierStats() ([]TierStatsItem, error) {
	if s.tierRepo == nil {
		return []TierStatsItem{}, nil
	}
	tiers, _, err := s.tierRepo.ListTiers(repository.TierListFilter{})
	if err != nil {
		return nil, err
	}

	tierIDs := make([]uint, 0, len(tiers))
	for _, tier := range tiers {
		tierIDs = append(tierIDs, tier.ID)
	}
	statsMap, err := s.tierRepo.GetTierStatsBatch(tierIDs)
	if err != nil {
		return nil, err
	}

	items := make([]TierStatsItem, 0, len(tiers))
	for _, tier := range tiers {
		aggregate := statsMap[tier.ID]
		items = append(items, TierStatsItem{
			Tier:             tier,
			AffiliateCount:   aggregate.AffiliateCount,
			TotalEarnings:    aggregate.TotalEarnings,
			TotalConversions: aggregate.TotalConversions,
		})
	}
	return items, nil
}

// GetTierLeaderboard 查询等级内收益排行
func (s *TierService) GetTierLeaderboard(tierID uint, limit int) ([]models.AffiliateProfile, error) {
	if _, err := s.GetTier(tierID); err != nil {
		return nil, err
	}
	return s.tierRepo.ListTierLeaderboard(tierID, limit)
}

// progressRatio 计算单维度达成率：门槛 <= 0 记 100，最高封顶 100
func progressRatio(current, required decimal.Decimal) decimal.Decimal {
	if required.LessThanOrEqual(decimal.Zero) {
		return decimalHundred
	}
	ratio := current.Div(required).Mul(decimalHundred).Round(2)
	if ratio.GreaterThan(decimalHundred) {
		return decimalHundred
	}
	return ratio
}

func normalizeTierStatus(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == constants.TierStatusInactive {
		return constants.TierStatusInactive
	}
	return constants.TierStatusActive
}
