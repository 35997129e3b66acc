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

// payoutWindowStatuses 计入限额窗口的状态：已完成与在途
var payoutWindowStatuses = []string{
	constants.PayoutStatusCompleted,
	constants.PayoutStatusPending,
	constants.PayoutStatusProcessing,
}

// PayoutRepository 提现流水数据访问接口
type PayoutRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PayoutRepository

	CreatePayout(payout *models.Payout) error
	UpdatePayout(payout *models.Payout) error
	GetPayoutByID(id uint) (*models.Payout, error)
	GetPayoutByIDForUpdate(id uint) (*models.Payout, error)
	ListPayouts(filter PayoutListFilter) ([]models.Payout, int64, error)
	ListRecentPayoutsByProfile(profileID uint, limit int) ([]models.Payout, error)
	SumWindowAmountSince(profileID, methodID uint, since time.Time) (decimal.Decimal, error)
	CountPayoutsByMethodAndStatus(methodID uint, status string) (int64, error)
}

// GormPayoutRepository GORM 提现流水仓储
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建提现流水仓储
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPayoutRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// CreatePayout 创建提现流水
func (r *GormPayoutRepository) CreatePayout(payout *models.Payout) error {
	return r.db.Create(payout).Error
}

// UpdatePayout 更新提现流水
func (r *GormPayoutRepository) UpdatePayout(payout *models.Payout) error {
	return r.db.Save(payout).Error
}

// GetPayoutByID 按ID查询提现流水
func (r *GormPayoutRepository) GetPayoutByID(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Payout
	if err := r.db.Preload("Method").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetPayoutByIDForUpdate 按ID锁定查询提现流水
func (r *GormPayoutRepository) GetPayoutByIDForUpdate(id uint) (*models.Payout, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Payout
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListPayouts 查询提现流水列表
func (r *GormPayoutRepository) ListPayouts(filter PayoutListFilter) ([]models.Payout, int64, error) {
	query := r.db.Model(&models.Payout{}).Preload("Method")
	if filter.ProfileID != 0 {
		query = query.Where("profile_id = ?", filter.ProfileID)
	}
	if filter.MethodID != 0 {
		query = query.Where("method_id = ?", filter.MethodID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Payout
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListRecentPayoutsByProfile 查询档案最近的提现流水
func (r *GormPayoutRepository) ListRecentPayoutsByProfile(profileID uint, limit int) ([]models.Payout, error) {
	if profileID == 0 {
		return []models.Payout{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	var rows []models.Payout
	if err := r.db.Preload("Method").
		Where("profile_id = ?", profileID).
		Order("id desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumWindowAmountSince 汇总窗口期内计入限额的提现金额
func (r *GormPayoutRepository) SumWindowAmountSince(profileID, methodID uint, since time.Time) (decimal.Decimal, error) {
	if profileID == 0 || methodID == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	err := r.db.Model(&models.Payout{}).
		Where("profile_id = ? AND method_id = ? AND status IN ? AND requested_at >= ?",
			profileID, methodID, payoutWindowStatuses, since).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// CountPayoutsByMethodAndStatus 统计方式下指定状态的流水数量
func (r *GormPayoutRepository) CountPayoutsByMethodAndStatus(methodID uint, status string) (int64, error) {
	if methodID == 0 {
		return 0, nil
	}
	query := r.db.Model(&models.Payout{}).Where("method_id = ?", methodID)
	if normalized := strings.TrimSpace(status); normalized != "" {
		query = query.Where("status = ?", normalized)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
