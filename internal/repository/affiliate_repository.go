package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AffiliateRepository 推广档案数据访问接口
type AffiliateRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateRepository

	GetProfileByID(id uint) (*models.AffiliateProfile, error)
	GetProfileByIDForUpdate(id uint) (*models.AffiliateProfile, error)
	GetProfileByUserID(userID uint) (*models.AffiliateProfile, error)
	GetProfileByCode(code string) (*models.AffiliateProfile, error)
	CreateProfile(profile *models.AffiliateProfile) error
	UpdateProfile(profile *models.AffiliateProfile) error
	UpdateProfileStatus(id uint, status string, updatedAt time.Time) error
	UpdateProfileCompliance(id uint, updates map[string]interface{}) error
	IncrementProfileCounters(id uint, clicks, conversions, referrals int64, earnings decimal.Decimal) error
	ListProfiles(filter AffiliateProfileListFilter) ([]models.AffiliateProfile, int64, error)
	ListActiveProfileIDs(afterID uint, limit int) ([]uint, error)
}

// GormAffiliateRepository GORM 推广档案仓储
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository 创建推广档案仓储
func NewAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateRepository) WithTx(tx *gorm.DB) AffiliateRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAffiliateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetProfileByID 按ID获取推广档案
func (r *GormAffiliateRepository) GetProfileByID(id uint) (*models.AffiliateProfile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.Preload("User").First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByIDForUpdate 按ID锁定获取推广档案；等级变更按档案行锁串行化
func (r *GormAffiliateRepository) GetProfileByIDForUpdate(id uint) (*models.AffiliateProfile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByUserID 按用户ID获取推广档案
func (r *GormAffiliateRepository) GetProfileByUserID(userID uint) (*models.AffiliateProfile, error) {
	if userID == 0 {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByCode 按联盟ID获取推广档案
func (r *GormAffiliateRepository) GetProfileByCode(code string) (*models.AffiliateProfile, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var profile models.AffiliateProfile
	if err := r.db.Preload("User").Where("affiliate_code = ?", normalized).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// CreateProfile 创建推广档案
func (r *GormAffiliateRepository) CreateProfile(profile *models.AffiliateProfile) error {
	return r.db.Create(profile).Error
}

// UpdateProfile 更新推广档案
func (r *GormAffiliateRepository) UpdateProfile(profile *models.AffiliateProfile) error {
	return r.db.Save(profile).Error
}

// UpdateProfileStatus 更新推广档案状态
func (r *GormAffiliateRepository) UpdateProfileStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// UpdateProfileCompliance 更新推广档案合规资料
func (r *GormAffiliateRepository) UpdateProfileCompliance(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).Where("id = ?", id).Updates(updates).Error
}

// IncrementProfileCounters 原子累加业绩指标
func (r *GormAffiliateRepository) IncrementProfileCounters(id uint, clicks, conversions, referrals int64, earnings decimal.Decimal) error {
	if id == 0 {
		return nil
	}
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if clicks != 0 {
		updates["total_clicks"] = gorm.Expr("total_clicks + ?", clicks)
	}
	if conversions != 0 {
		updates["total_conversions"] = gorm.Expr("total_conversions + ?", conversions)
	}
	if referrals != 0 {
		updates["total_referrals"] = gorm.Expr("total_referrals + ?", referrals)
	}
	if !earnings.IsZero() {
		updates["total_earnings"] = gorm.Expr("total_earnings + ?", earnings.Round(2))
	}
	if len(updates) == 1 {
		return nil
	}
	return r.db.Model(&models.AffiliateProfile{}).Where("id = ?", id).Updates(updates).Error
}

// ListProfiles 查询推广档案列表
func (r *GormAffiliateRepository) ListProfiles(filter AffiliateProfileListFilter) ([]models.AffiliateProfile, int64, error) {
	query := r.db.Model(&models.AffiliateProfile{}).Preload("User")
	if filter.UserID != 0 {
		query = query.Where("affiliate_profiles.user_id = ?", filter.UserID)
	}
	if code := strings.TrimSpace(filter.Code); code != "" {
		query = query.Where("affiliate_profiles.affiliate_code = ?", code)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("affiliate_profiles.status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		condition, argCount := buildKeywordLikeCondition(r.db,
			[]string{"users.email", "users.display_name", "affiliate_profiles.affiliate_code"})
		query = query.
			Joins("LEFT JOIN users ON users.id = affiliate_profiles.user_id").
			Where("("+condition+")", repeatLikeArgs(like, argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AffiliateProfile
	if err := query.Order("affiliate_profiles.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListActiveProfileIDs 按ID升序分批读取启用档案，afterID 为上一批最后一个ID
func (r *GormAffiliateRepository) ListActiveProfileIDs(afterID uint, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []uint
	if err := r.db.Model(&models.AffiliateProfile{}).
		Where("id > ? AND status = ?", afterID, constants.AffiliateProfileStatusActive).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
