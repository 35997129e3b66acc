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

// TierStatsAggregate 单个等级的统计聚合结果
type TierStatsAggregate struct {
	AffiliateCount   int64
	TotalEarnings    decimal.Decimal
	TotalConversions int64
}

// TierRepository 等级数据访问接口
type TierRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) TierRepository

	GetTierByID(id uint) (*models.Tier, error)
	GetTierByName(name string) (*models.Tier, error)
	CreateTier(tier *models.Tier) error
	UpdateTier(tier *models.Tier) error
	DeleteTier(id uint) error
	ListTiers(filter TierListFilter) ([]models.Tier, int64, error)
	ListTiersByLevelDesc(status string) ([]models.Tier, error)
	GetNextTierAbove(level int) (*models.Tier, error)

	GetActiveAssignment(profileID uint) (*models.TierAssignment, error)
	ExpireActiveAssignments(profileID uint, expiredAt time.Time) error
	CreateAssignment(assignment *models.TierAssignment) error
	ListAssignments(filter TierAssignmentListFilter) ([]models.TierAssignment, int64, error)
	CountActiveAssignmentsByTier(tierID uint) (int64, error)

	UpsertProgress(progress *models.TierProgress) error
	GetProgress(profileID uint) (*models.TierProgress, error)

	GetTierStatsBatch(tierIDs []uint) (map[uint]TierStatsAggregate, error)
	ListTierLeaderboard(tierID uint, limit int) ([]models.AffiliateProfile, error)
}

// GormTierRepository GORM 等级仓储
type GormTierRepository struct {
	db *gorm.DB
}

// NewTierRepository 创建等级仓储
func NewTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTierRepository) WithTx(tx *gorm.DB) TierRepository {
	if tx == nil {
		return r
	}
	return &GormTierRepository{db: tx}
}

// Transaction 执行事务
func (r *GormTierRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetTierByID 按ID获取等级
func (r *GormTierRepository) GetTierByID(id uint) (*models.Tier, error) {
	if id == 0 {
		return nil, nil
	}
	var tier models.Tier
	if err := r.db.First(&tier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// GetTierByName 按名称获取等级
func (r *GormTierRepository) GetTierByName(name string) (*models.Tier, error) {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return nil, nil
	}
	var tier models.Tier
	if err := r.db.Where("name = ?", normalized).First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// CreateTier 创建等级
func (r *GormTierRepository) CreateTier(tier *models.Tier) error {
	return r.db.Create(tier).Error
}

// UpdateTier 更新等级
func (r *GormTierRepository) UpdateTier(tier *models.Tier) error {
	return r.db.Save(tier).Error
}

// DeleteTier 删除等级（软删除）
func (r *GormTierRepository) DeleteTier(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Tier{}, id).Error
}

// ListTiers 查询等级列表，按等级序号升序
func (r *GormTierRepository) ListTiers(filter TierListFilter) ([]models.Tier, int64, error) {
	query := r.db.Model(&models.Tier{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Tier
	if err := query.Order("level asc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListTiersByLevelDesc 按等级序号降序查询，资格扫描从最高级开始
func (r *GormTierRepository) ListTiersByLevelDesc(status string) ([]models.Tier, error) {
	query := r.db.Model(&models.Tier{})
	if normalized := strings.TrimSpace(status); normalized != "" {
		query = query.Where("status = ?", normalized)
	}
	var rows []models.Tier
	if err := query.Order("level desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetNextTierAbove 查询高于指定序号的最低等级
func (r *GormTierRepository) GetNextTierAbove(level int) (*models.Tier, error) {
	var tier models.Tier
	err := r.db.Where("level > ? AND status = ?", level, constants.TierStatusActive).
		Order("level asc").
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// GetActiveAssignment 查询档案当前生效的等级归属
func (r *GormTierRepository) GetActiveAssignment(profileID uint) (*models.TierAssignment, error) {
	if profileID == 0 {
		return nil, nil
	}
	var row models.TierAssignment
	err := r.db.Preload("Tier").
		Where("profile_id = ? AND status = ?", profileID, constants.TierAssignmentStatusActive).
		Order("id desc").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ExpireActiveAssignments 将档案现有生效归属置为失效
func (r *GormTierRepository) ExpireActiveAssignments(profileID uint, expiredAt time.Time) error {
	if profileID == 0 {
		return nil
	}
	return r.db.Model(&models.TierAssignment{}).
		Where("profile_id = ? AND status = ?", profileID, constants.TierAssignmentStatusActive).
		Updates(map[string]interface{}{
			"status":     constants.TierAssignmentStatusExpired,
			"expired_at": expiredAt,
			"updated_at": expiredAt,
		}).Error
}

// CreateAssignment 创建等级归属记录
func (r *GormTierRepository) CreateAssignment(assignment *models.TierAssignment) error {
	return r.db.Create(assignment).Error
}

// ListAssignments 查询等级归属记录列表
func (r *GormTierRepository) ListAssignments(filter TierAssignmentListFilter) ([]models.TierAssignment, int64, error) {
	query := r.db.Model(&models.TierAssignment{}).Preload("Tier")
	if filter.ProfileID != 0 {
		query = query.Where("profile_id = ?", filter.ProfileID)
	}
	if filter.TierID != 0 {
		query = query.Where("tier_id = ?", filter.TierID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.TierAssignment
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountActiveAssignmentsByTier 统计等级下生效归属数量
func (r *GormTierRepository) CountActiveAssignmentsByTier(tierID uint) (int64, error) {
	if tierID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.TierAssignment{}).
		Where("tier_id = ? AND status = ?", tierID, constants.TierAssignmentStatusActive).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UpsertProgress 写入或刷新进度快照
func (r *GormTierRepository) UpsertProgress(progress *models.TierProgress) error {
	if progress == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier_id", "next_tier_id",
			"referrals_ratio", "conversions_ratio", "clicks_ratio", "earnings_ratio",
			"overall_progress", "computed_at", "updated_at",
		}),
	}).Create(progress).Error
}

// GetProgress 查询进度快照
func (r *GormTierRepository) GetProgress(profileID uint) (*models.TierProgress, error) {
	if profileID == 0 {
		return nil, nil
	}
	var row models.TierProgress
	if err := r.db.Where("profile_id = ?", profileID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetTierStatsBatch 批量汇总各等级的档案数与业绩
func (r *GormTierRepository) GetTierStatsBatch(tierIDs []uint) (map[uint]TierStatsAggregate, error) {
	result := make(map[uint]TierStatsAggregate, len(tierIDs))
	if len(tierIDs) == 0 {
		return result, nil
	}

	for _, id := range tierIDs {
		if id == 0 {
			continue
		}
		result[id] = TierStatsAggregate{TotalEarnings: decimal.Zero}
	}

	var rows []struct {
		TierID           uint            `gorm:"column:tier_id"`
		AffiliateCount   int64           `gorm:"column:affiliate_count"`
		TotalEarnings    decimal.Decimal `gorm:"column:total_earnings"`
		TotalConversions int64           `gorm:"column:total_conversions"`
	}
	err := r.db.Model(&models.TierAssignment{}).
		Select("tier_assignments.tier_id, COUNT(*) AS affiliate_count, "+
			"COALESCE(SUM(affiliate_profiles.total_earnings), 0) AS total_earnings, "+
			"COALESCE(SUM(affiliate_profiles.total_conversions), 0) AS total_conversions").
		Joins("JOIN affiliate_profiles ON affiliate_profiles.id = tier_assignments.profile_id").
		Where("tier_assignments.tier_id IN ? AND tier_assignments.status = ?", tierIDs, constants.TierAssignmentStatusActive).
		Group("tier_assignments.tier_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.TierID] = TierStatsAggregate{
			AffiliateCount:   row.AffiliateCount,
			TotalEarnings:    row.TotalEarnings.Round(2),
			TotalConversions: row.TotalConversions,
		}
	}
	return result, nil
}

// ListTierLeaderboard 查询等级内档案，按进度快照降序，收益作次序兜底。
// 没有进度快照的档案按 0 参与排序。
func (r *GormTierRepository) ListTierLeaderboard(tierID uint, limit int) ([]models.AffiliateProfile, error) {
	if tierID == 0 {
		return []models.AffiliateProfile{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var rows []models.AffiliateProfile
	err := r.db.Model(&models.AffiliateProfile{}).
		Joins("JOIN tier_assignments ta ON ta.profile_id = affiliate_profiles.id").
		Joins("LEFT JOIN tier_progresses tp ON tp.profile_id = affiliate_profiles.id").
		Where("ta.tier_id = ? AND ta.status = ?", tierID, constants.TierAssignmentStatusActive).
		Order("COALESCE(tp.overall_progress, 0) desc, affiliate_profiles.total_earnings desc, affiliate_profiles.id asc").
		Limit(limit).
		Preload("User").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
