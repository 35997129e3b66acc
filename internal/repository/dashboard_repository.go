package repository

import (
	"fmt"
	"time"

	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetPayoutTrends(startAt, endAt time.Time) ([]DashboardPayoutTrendRow, error)
	GetTierDistribution() ([]DashboardTierDistributionRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	AffiliatesTotal       int64
	AffiliatesActive      int64
	AffiliatesDisabled    int64
	NewAffiliates         int64
	ClicksTotal           int64
	ConversionsTotal      int64
	EarningsTotal         float64
	PayoutsTotal          int64
	PayoutsPending        int64
	PayoutsProcessing     int64
	PayoutsCompleted      int64
	PayoutsFailed         int64
	PayoutAmountCompleted float64
}

// DashboardPayoutTrendRow 提现趋势统计
type DashboardPayoutTrendRow struct {
	Day             string
	Requested       int64
	Completed       int64
	Failed          int64
	CompletedAmount float64
}

// DashboardTierDistributionRow 等级分布原始行
type DashboardTierDistributionRow struct {
	TierID     uint
	TierName   string
	Level      int
	Affiliates int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	profileBase := func() *gorm.DB {
		return r.db.Model(&models.AffiliateProfile{})
	}

	if err := profileBase().Count(&result.AffiliatesTotal).Error; err != nil {
		return result, err
	}
	if err := profileBase().Where("status = ?", constants.AffiliateProfileStatusActive).Count(&result.AffiliatesActive).Error; err != nil {
		return result, err
	}
	if err := profileBase().Where("status = ?", constants.AffiliateProfileStatusDisabled).Count(&result.AffiliatesDisabled).Error; err != nil {
		return result, err
	}
	if err := profileBase().Where("created_at >= ? AND created_at < ?", startAt, endAt).Count(&result.NewAffiliates).Error; err != nil {
		return result, err
	}

	type counterRow struct {
		Clicks      int64
		Conversions int64
		Earnings    float64
	}
	var counters counterRow
	if err := profileBase().
		Select("COALESCE(SUM(total_clicks), 0) as clicks, COALESCE(SUM(total_conversions), 0) as conversions, COALESCE(SUM(total_earnings), 0) as earnings").
		Scan(&counters).Error; err != nil {
		return result, err
	}
	result.ClicksTotal = counters.Clicks
	result.ConversionsTotal = counters.Conversions
	result.EarningsTotal = counters.Earnings

	payoutBase := func() *gorm.DB {
		return r.db.Model(&models.Payout{}).
			Where("requested_at >= ? AND requested_at < ?", startAt, endAt)
	}
	if err := payoutBase().Count(&result.PayoutsTotal).Error; err != nil {
		return result, err
	}
	if err := payoutBase().Where("status = ?", constants.PayoutStatusPending).Count(&result.PayoutsPending).Error; err != nil {
		return result, err
	}
	if err := payoutBase().Where("status = ?", constants.PayoutStatusProcessing).Count(&result.PayoutsProcessing).Error; err != nil {
		return result, err
	}
	if err := payoutBase().Where("status = ?", constants.PayoutStatusCompleted).Count(&result.PayoutsCompleted).Error; err != nil {
		return result, err
	}
	if err := payoutBase().Where("status = ?", constants.PayoutStatusFailed).Count(&result.PayoutsFailed).Error; err != nil {
		return result, err
	}
	if err := payoutBase().
		Where("status = ?", constants.PayoutStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.PayoutAmountCompleted).Error; err != nil {
		return result, err
	}

	return result, nil
}

// GetPayoutTrends 获取提现趋势
func (r *GormDashboardRepository) GetPayoutTrends(startAt, endAt time.Time) ([]DashboardPayoutTrendRow, error) {
	type requestedRow struct {
		Day       string
		Requested int64
	}
	type statusRow struct {
		Day    string
		Total  int64
		Amount float64
	}

	dayExpr := "CAST(date(requested_at) AS TEXT)"

	var requested []requestedRow
	if err := r.db.Model(&models.Payout{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as requested", dayExpr)).
		Where("requested_at >= ? AND requested_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&requested).Error; err != nil {
		return nil, err
	}

	var completed []statusRow
	if err := r.db.Model(&models.Payout{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total, COALESCE(SUM(amount), 0) as amount", dayExpr)).
		Where("requested_at >= ? AND requested_at < ? AND status = ?", startAt, endAt, constants.PayoutStatusCompleted).
		Group(dayExpr).
		Order("day asc").
		Scan(&completed).Error; err != nil {
		return nil, err
	}

	var failed []statusRow
	if err := r.db.Model(&models.Payout{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total, 0 as amount", dayExpr)).
		Where("requested_at >= ? AND requested_at < ? AND status = ?", startAt, endAt, constants.PayoutStatusFailed).
		Group(dayExpr).
		Order("day asc").
		Scan(&failed).Error; err != nil {
		return nil, err
	}

	completedMap := make(map[string]statusRow, len(completed))
	for _, item := range completed {
		completedMap[item.Day] = item
	}
	failedMap := make(map[string]int64, len(failed))
	for _, item := range failed {
		failedMap[item.Day] = item.Total
	}

	result := make([]DashboardPayoutTrendRow, 0, len(requested))
	for _, item := range requested {
		completedItem := completedMap[item.Day]
		result = append(result, DashboardPayoutTrendRow{
			Day:             item.Day,
			Requested:       item.Requested,
			Completed:       completedItem.Total,
			Failed:          failedMap[item.Day],
			CompletedAmount: completedItem.Amount,
		})
	}
	return result, nil
}

// GetTierDistribution 获取当前生效等级的档案分布
func (r *GormDashboardRepository) GetTierDistribution() ([]DashboardTierDistributionRow, error) {
	var rows []DashboardTierDistributionRow
	if err := r.db.Model(&models.TierAssignment{}).
		Select("tiers.id as tier_id, tiers.name as tier_name, tiers.level as level, COUNT(tier_assignments.id) as affiliates").
		Joins("JOIN tiers ON tiers.id = tier_assignments.tier_id").
		Where("tier_assignments.status = ?", constants.TierAssignmentStatusActive).
		Group("tiers.id, tiers.name, tiers.level").
		Order("tiers.level asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []DashboardTierDistributionRow{}
	}
	return rows, nil
}
