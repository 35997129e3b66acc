package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/logger"
	"github.com/partnerdesk/internal/models"
	"github.com/partnerdesk/internal/queue"
	"github.com/partnerdesk/internal/repository"
	"github.com/shopspring/decimal"
)

const affiliateCodeLength = 8

// AffiliateService 推广档案业务服务
type AffiliateService struct {
	repo        repository.AffiliateRepository
	userRepo    repository.UserRepository
	payoutRepo  repository.PayoutRepository
	tierService *TierService
	queueClient *queue.Client
}

// NewAffiliateService 创建推广档案服务
func NewAffiliateService(
	repo repository.AffiliateRepository,
	userRepo repository.UserRepository,
	payoutRepo repository.PayoutRepository,
	tierService *TierService,
	queueClient *queue.Client,
) *AffiliateService {
	return &AffiliateService{
		repo:        repo,
		userRepo:    userRepo,
		payoutRepo:  payoutRepo,
		tierService: tierService,
		queueClient: queueClient,
	}
}

// AffiliateComplianceInput 合规资料更新输入
type AffiliateComplianceInput struct {
	KYCVerified *bool
	BankAccount *string
	TaxID       *string
	Address     *string
	Phone       *string
}

// AffiliateDashboard 推广档案概览
type AffiliateDashboard struct {
	Profile       *models.AffiliateProfile `json:"profile"`
	ActiveTier    *models.Tier             `json:"active_tier"`
	Progress      *models.TierProgress     `json:"progress"`
	RecentPayouts []models.Payout          `json:"recent_payouts"`
}

// OpenAffiliate 为用户开通推广档案，联盟短ID随机生成并在
// 唯一冲突时重试
func (s *AffiliateService) OpenAffiliate(userID uint) (*models.AffiliateProfile, error) {
	if userID == 0 {
		return nil, ErrUserDisabled
	}
	if s.repo == nil || s.userRepo == nil {
		return nil, ErrNotFound
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(user.Status) == constants.UserStatusDisabled {
		return nil, ErrUserDisabled
	}

	existing, err := s.repo.GetProfileByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAffiliateAlreadyOpened
	}

	const maxRetry = 8
	for i := 0; i < maxRetry; i++ {
		code, genErr := generateAffiliateCode()
		if genErr != nil {
			return nil, genErr
		}
		profile := &models.AffiliateProfile{
			UserID:        userID,
			AffiliateCode: code,
			Status:        constants.AffiliateProfileStatusActive,
		}
		if err := s.repo.CreateProfile(profile); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		created, err := s.repo.GetProfileByID(profile.ID)
		if err != nil {
			return nil, err
		}
		if created != nil {
			return created, nil
		}
		return profile, nil
	}
	return nil, ErrAffiliateCodeInvalid
}

// GetProfile 按ID获取推广档案
func (s *AffiliateService) GetProfile(profileID uint) (*models.AffiliateProfile, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	profile, err := s.repo.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// GetProfileByCode 按联盟短ID获取推广档案
func (s *AffiliateService) GetProfileByCode(code string) (*models.AffiliateProfile, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	profile, err := s.repo.GetProfileByCode(code)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// ListProfiles 查询推广档案列表
func (s *AffiliateService) ListProfiles(filter repository.AffiliateProfileListFilter) ([]models.AffiliateProfile, int64, error) {
	if s.repo == nil {
		return []models.AffiliateProfile{}, 0, nil
	}
	return s.repo.ListProfiles(filter)
}

// UpdateProfileStatus 管理端更新推广档案状态
func (s *AffiliateService) UpdateProfileStatus(profileID uint, rawStatus string) (*models.AffiliateProfile, error) {
	if profileID == 0 || s.repo == nil {
		return nil, ErrNotFound
	}
	nextStatus := strings.TrimSpace(rawStatus)
	if nextStatus != constants.AffiliateProfileStatusActive && nextStatus != constants.AffiliateProfileStatusDisabled {
		return nil, ErrAffiliateProfileStatusInvalid
	}

	profile, err := s.repo.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(profile.Status) == nextStatus {
		return profile, nil
	}
	if err := s.repo.UpdateProfileStatus(profileID, nextStatus, time.Now()); err != nil {
		return nil, err
	}
	return s.repo.GetProfileByID(profileID)
}

// UpdateCompliance 更新合规资料，仅写入提交的字段
func (s *AffiliateService) UpdateCompliance(profileID uint, input AffiliateComplianceInput) (*models.AffiliateProfile, error) {
	profile, err := s.GetProfile(profileID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if input.KYCVerified != nil {
		updates["kyc_verified"] = *input.KYCVerified
	}
	if input.BankAccount != nil {
		updates["bank_account"] = strings.TrimSpace(*input.BankAccount)
	}
	if input.TaxID != nil {
		updates["tax_id"] = strings.TrimSpace(*input.TaxID)
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if len(updates) == 1 {
		return profile, nil
	}
	if err := s.repo.UpdateProfileCompliance(profileID, updates); err != nil {
		return nil, err
	}
	return s.repo.GetProfileByID(profileID)
}

// RecordClick 按联盟短ID记一次点击
func (s *AffiliateService) RecordClick(code string) error {
	profile, err := s.resolveActiveProfile(code)
	if err != nil {
		return err
	}
	return s.repo.IncrementProfileCounters(profile.ID, 1, 0, 0, decimal.Zero)
}

// RecordConversion 按联盟短ID记一次成交并累计收益，
// 成功后触发等级资格复核
func (s *AffiliateService) RecordConversion(code string, earnings decimal.Decimal) error {
	if earnings.IsNegative() {
		return ErrAffiliateEarningsInvalid
	}
	profile, err := s.resolveActiveProfile(code)
	if err != nil {
		return err
	}
	if err := s.repo.IncrementProfileCounters(profile.ID, 0, 1, 0, earnings); err != nil {
		return err
	}
	if err := s.queueClient.EnqueueTierRecheck(queue.TierRecheckPayload{ProfileID: profile.ID}); err != nil {
		// 复核任务丢失由定时批量晋升兜底
		logger.Warnw("tier_recheck_enqueue_failed", "profile_id", profile.ID, "error", err)
	}
	return nil
}

// RecordReferral 按联盟短ID记一次邀请
func (s *AffiliateService) RecordReferral(code string) error {
	profile, err := s.resolveActiveProfile(code)
	if err != nil {
		return err
	}
	return s.repo.IncrementProfileCounters(profile.ID, 0, 0, 1, decimal.Zero)
}

// GetDashboard 查询推广档案概览：档案、当前等级、进度与最近提现
func (s *AffiliateService) GetDashboard(profileID uint) (*AffiliateDashboard, error) {
	profile, err := s.GetProfile(profileID)
	if err != nil {
		return nil, err
	}

	dashboard := &AffiliateDashboard{Profile: profile}

	if s.tierService != nil {
		progress, err := s.tierService.CalculateTierProgress(profileID)
		if err != nil {
			return nil, err
		}
		dashboard.ActiveTier = progress.Current
		dashboard.Progress = progress.Progress
	}

	if s.payoutRepo != nil {
		recent, err := s.payoutRepo.ListRecentPayoutsByProfile(profileID, 5)
		if err != nil {
			return nil, err
		}
		dashboard.RecentPayouts = recent
	}
	return dashboard, nil
}

// resolveActiveProfile 解析联盟短ID并要求档案处于启用状态
func (s *AffiliateService) resolveActiveProfile(code string) (*models.AffiliateProfile, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	profile, err := s.repo.GetProfileByCode(code)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrAffiliateNotOpened
	}
	if strings.TrimSpace(profile.Status) != constants.AffiliateProfileStatusActive {
		return nil, ErrAffiliateDisabled
	}
	return profile, nil
}

func generateAffiliateCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var builder strings.Builder
	builder.Grow(affiliateCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < affiliateCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
