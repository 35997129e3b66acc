package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/partnerdesk/internal/cache"
	"github.com/partnerdesk/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90

	dashboardPendingPayoutsThreshold = 20
	dashboardFailedPayoutsThreshold  = 5
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页核心运营数据。
type DashboardService struct {
	repo           repository.DashboardRepository
	settingService *SettingService
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, settingService *SettingService) *DashboardService {
	return &DashboardService{repo: repo, settingService: settingService}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Currency string                `json:"currency,omitempty"`
	KPI      DashboardKPI          `json:"kpi"`
	Tiers    []DashboardTierBucket `json:"tiers"`
	Alerts   []DashboardAlertItem  `json:"alerts"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	AffiliatesTotal       int64  `json:"affiliates_total"`
	AffiliatesActive      int64  `json:"affiliates_active"`
	AffiliatesDisabled    int64  `json:"affiliates_disabled"`
	NewAffiliates         int64  `json:"new_affiliates"`
	ClicksTotal           int64  `json:"clicks_total"`
	ConversionsTotal      int64  `json:"conversions_total"`
	ConversionRate        string `json:"conversion_rate"`
	EarningsTotal         string `json:"earnings_total"`
	PayoutsTotal          int64  `json:"payouts_total"`
	PayoutsPending        int64  `json:"payouts_pending"`
	PayoutsProcessing     int64  `json:"payouts_processing"`
	PayoutsCompleted      int64  `json:"payouts_completed"`
	PayoutsFailed         int64  `json:"payouts_failed"`
	PayoutSuccessRate     string `json:"payout_success_rate"`
	PayoutAmountCompleted string `json:"payout_amount_completed"`
}

// DashboardTierBucket 等级分布项
type DashboardTierBucket struct {
	TierID     uint   `json:"tier_id"`
	TierName   string `json:"tier_name"`
	Level      int    `json:"level"`
	Affiliates int64  `json:"affiliates"`
}

// DashboardAlertItem 仪表盘告警项
type DashboardAlertItem struct {
	Type  string `json:"type"`
	Level string `json:"level"`
	Value int64  `json:"value"`
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date             string `json:"date"`
	PayoutsRequested int64  `json:"payouts_requested"`
	PayoutsCompleted int64  `json:"payouts_completed"`
	PayoutsFailed    int64  `json:"payouts_failed"`
	CompletedAmount  string `json:"completed_amount"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

// GetOverview 获取仪表盘总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:overview:%s:%d:%d:%s",
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
	)
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverview(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	distribution, err := s.repo.GetTierDistribution()
	if err != nil {
		return nil, err
	}

	conversionRate := 0.0
	if overview.ClicksTotal > 0 {
		conversionRate = float64(overview.ConversionsTotal) / float64(overview.ClicksTotal) * 100
	}

	settled := overview.PayoutsCompleted + overview.PayoutsFailed
	payoutSuccessRate := 0.0
	if settled > 0 {
		payoutSuccessRate = float64(overview.PayoutsCompleted) / float64(settled) * 100
	}

	tiers := make([]DashboardTierBucket, 0, len(distribution))
	for _, item := range distribution {
		tiers = append(tiers, DashboardTierBucket{
			TierID:     item.TierID,
			TierName:   strings.TrimSpace(item.TierName),
			Level:      item.Level,
			Affiliates: item.Affiliates,
		})
	}

	response := &DashboardOverviewResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Currency: s.loadPayoutCurrency(),
		KPI: DashboardKPI{
			AffiliatesTotal:       overview.AffiliatesTotal,
			AffiliatesActive:      overview.AffiliatesActive,
			AffiliatesDisabled:    overview.AffiliatesDisabled,
			NewAffiliates:         overview.NewAffiliates,
			ClicksTotal:           overview.ClicksTotal,
			ConversionsTotal:      overview.ConversionsTotal,
			ConversionRate:        formatPercentValue(conversionRate),
			EarningsTotal:         formatMoneyValue(overview.EarningsTotal),
			PayoutsTotal:          overview.PayoutsTotal,
			PayoutsPending:        overview.PayoutsPending,
			PayoutsProcessing:     overview.PayoutsProcessing,
			PayoutsCompleted:      overview.PayoutsCompleted,
			PayoutsFailed:         overview.PayoutsFailed,
			PayoutSuccessRate:     formatPercentValue(payoutSuccessRate),
			PayoutAmountCompleted: formatMoneyValue(overview.PayoutAmountCompleted),
		},
		Tiers:  tiers,
		Alerts: buildDashboardAlerts(overview),
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 获取提现趋势
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.GetPayoutTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}

	rowMap := make(map[string]repository.DashboardPayoutTrendRow, len(rows))
	for _, item := range rows {
		rowMap[item.Day] = item
	}

	points := make([]DashboardTrendPoint, 0)
	for cursor := time.Date(window.startAt.Year(), window.startAt.Month(), window.startAt.Day(), 0, 0, 0, 0, window.startAt.Location()); cursor.Before(window.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		item := rowMap[day]
		points = append(points, DashboardTrendPoint{
			Date:             day,
			PayoutsRequested: item.Requested,
			PayoutsCompleted: item.Completed,
			PayoutsFailed:    item.Failed,
			CompletedAmount:  formatMoneyValue(item.CompletedAmount),
		})
	}

	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func (s *DashboardService) loadPayoutCurrency() string {
	if s == nil || s.settingService == nil {
		return ""
	}
	currency, err := s.settingService.GetPayoutDefaultCurrency("")
	if err != nil {
		return ""
	}
	return currency
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	if !window.endAt.After(window.startAt) {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func buildDashboardAlerts(overview repository.DashboardOverviewRow) []DashboardAlertItem {
	alerts := make([]DashboardAlertItem, 0, 3)
	if overview.PayoutsPending >= dashboardPendingPayoutsThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_payouts", Level: "warning", Value: overview.PayoutsPending})
	}
	if overview.PayoutsFailed >= dashboardFailedPayoutsThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "failed_payouts", Level: "warning", Value: overview.PayoutsFailed})
	}
	if overview.AffiliatesDisabled > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "disabled_affiliates", Level: "info", Value: overview.AffiliatesDisabled})
	}
	return alerts
}
