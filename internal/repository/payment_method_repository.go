package repository

import (
	"errors"
	"strings"

	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MethodUsageAggregate 支付方式维度的使用统计聚合结果
type MethodUsageAggregate struct {
	ProfileCount    int64
	TxCount         int64
	TotalAmount     decimal.Decimal
	AvgSuccessRate  decimal.Decimal
	AvgProcessHours decimal.Decimal
}

// PaymentMethodRepository 支付方式数据访问接口
type PaymentMethodRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PaymentMethodRepository

	GetMethodByID(id uint) (*models.PaymentMethod, error)
	GetMethodByCode(code string) (*models.PaymentMethod, error)
	CreateMethod(method *models.PaymentMethod) error
	UpdateMethod(method *models.PaymentMethod) error
	UpdateMethodStatus(id uint, status string) error
	ListMethods(filter PaymentMethodListFilter) ([]models.PaymentMethod, int64, error)

	GetUsage(profileID, methodID uint) (*models.PaymentMethodUsage, error)
	GetUsageForUpdate(profileID, methodID uint) (*models.PaymentMethodUsage, error)
	CreateUsage(usage *models.PaymentMethodUsage) error
	UpdateUsage(usage *models.PaymentMethodUsage) error
	GetMethodUsageAggregate(methodID uint) (MethodUsageAggregate, error)
	ListTopUsagesByMethod(methodID uint, limit int) ([]models.PaymentMethodUsage, error)
}

// GormPaymentMethodRepository GORM 支付方式仓储
type GormPaymentMethodRepository struct {
	db *gorm.DB
}

// NewPaymentMethodRepository 创建支付方式仓储
func NewPaymentMethodRepository(db *gorm.DB) *GormPaymentMethodRepository {
	return &GormPaymentMethodRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentMethodRepository) WithTx(tx *gorm.DB) PaymentMethodRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentMethodRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPaymentMethodRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetMethodByID 按ID获取支付方式
func (r *GormPaymentMethodRepository) GetMethodByID(id uint) (*models.PaymentMethod, error) {
	if id == 0 {
		return nil, nil
	}
	var method models.PaymentMethod
	if err := r.db.First(&method, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &method, nil
}

// GetMethodByCode 按编码获取支付方式
func (r *GormPaymentMethodRepository) GetMethodByCode(code string) (*models.PaymentMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var method models.PaymentMethod
	if err := r.db.Where("code = ?", normalized).First(&method).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &method, nil
}

// CreateMethod 创建支付方式
func (r *GormPaymentMethodRepository) CreateMethod(method *models.PaymentMethod) error {
	return r.db.Create(method).Error
}

// UpdateMethod 更新支付方式
func (r *GormPaymentMethodRepository) UpdateMethod(method *models.PaymentMethod) error {
	return r.db.Save(method).Error
}

// UpdateMethodStatus 更新支付方式状态
func (r *GormPaymentMethodRepository) UpdateMethodStatus(id uint, status string) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.PaymentMethod{}).
		Where("id = ?", id).
		Update("status", strings.TrimSpace(status)).Error
}

// ListMethods 查询支付方式列表
func (r *GormPaymentMethodRepository) ListMethods(filter PaymentMethodListFilter) ([]models.PaymentMethod, int64, error) {
	query := r.db.Model(&models.PaymentMethod{})
	if filter.ActiveOnly {
		query = query.Where("status = ?", constants.PaymentMethodStatusActive)
	} else if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.PaymentMethod
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	// 币种过滤走 JSON 列，按方言做表达式成本高，列表量小直接内存过滤
	if currency := strings.ToUpper(strings.TrimSpace(filter.Currency)); currency != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if row.SupportedCurrencies.Contains(currency) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
		total = int64(len(rows))
	}
	return rows, total, nil
}

// GetUsage 查询档案在指定方式下的使用统计
func (r *GormPaymentMethodRepository) GetUsage(profileID, methodID uint) (*models.PaymentMethodUsage, error) {
	if profileID == 0 || methodID == 0 {
		return nil, nil
	}
	var usage models.PaymentMethodUsage
	if err := r.db.Where("profile_id = ? AND method_id = ?", profileID, methodID).First(&usage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// GetUsageForUpdate 锁定查询使用统计，加权均值更新按行锁串行化
func (r *GormPaymentMethodRepository) GetUsageForUpdate(profileID, methodID uint) (*models.PaymentMethodUsage, error) {
	if profileID == 0 || methodID == 0 {
		return nil, nil
	}
	var usage models.PaymentMethodUsage
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("profile_id = ? AND method_id = ?", profileID, methodID).
		First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// CreateUsage 创建使用统计记录
func (r *GormPaymentMethodRepository) CreateUsage(usage *models.PaymentMethodUsage) error {
	return r.db.Create(usage).Error
}

// UpdateUsage 更新使用统计记录
func (r *GormPaymentMethodRepository) UpdateUsage(usage *models.PaymentMethodUsage) error {
	return r.db.Save(usage).Error
}

// GetMethodUsageAggregate 汇总支付方式的整体使用情况
func (r *GormPaymentMethodRepository) GetMethodUsageAggregate(methodID uint) (MethodUsageAggregate, error) {
	aggregate := MethodUsageAggregate{
		TotalAmount:     decimal.Zero,
		AvgSuccessRate:  decimal.Zero,
		AvgProcessHours: decimal.Zero,
	}
	if methodID == 0 {
		return aggregate, nil
	}

	var row struct {
		ProfileCount    int64           `gorm:"column:profile_count"`
		TxCount         int64           `gorm:"column:tx_count"`
		TotalAmount     decimal.Decimal `gorm:"column:total_amount"`
		AvgSuccessRate  decimal.Decimal `gorm:"column:avg_success_rate"`
		AvgProcessHours decimal.Decimal `gorm:"column:avg_process_hours"`
	}
	err := r.db.Model(&models.PaymentMethodUsage{}).
		Select("COUNT(*) AS profile_count, "+
			"COALESCE(SUM(tx_count), 0) AS tx_count, "+
			"COALESCE(SUM(total_amount), 0) AS total_amount, "+
			"COALESCE(AVG(success_rate), 0) AS avg_success_rate, "+
			"COALESCE(AVG(avg_processing_hours), 0) AS avg_process_hours").
		Where("method_id = ?", methodID).
		Scan(&row).Error
	if err != nil {
		return aggregate, err
	}
	aggregate.ProfileCount = row.ProfileCount
	aggregate.TxCount = row.TxCount
	aggregate.TotalAmount = row.TotalAmount.Round(2)
	aggregate.AvgSuccessRate = row.AvgSuccessRate.Round(2)
	aggregate.AvgProcessHours = row.AvgProcessHours.Round(2)
	return aggregate, nil
}

// ListTopUsagesByMethod 查询方式下按累计金额排序的使用记录
func (r *GormPaymentMethodRepository) ListTopUsagesByMethod(methodID uint, limit int) ([]models.PaymentMethodUsage, error) {
	if methodID == 0 {
		return []models.PaymentMethodUsage{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var rows []models.PaymentMethodUsage
	if err := r.db.Where("method_id = ?", methodID).
		Order("total_amount desc, id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
