package public

import (
	"time"

	"github.com/partnerdesk/internal/cache"
	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/http/response"
	"github.com/partnerdesk/internal/models"
	"github.com/partnerdesk/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheTTL = 60 * time.Second
	publicTiersCacheTTL  = 60 * time.Second
)

// PublicTierView 公开等级表响应结构，只暴露晋升门槛与佣金信息
type PublicTierView struct {
	ID             uint               `json:"id"`
	Name           string             `json:"name"`
	Level          int                `json:"level"`
	CommissionRate float64            `json:"commission_rate"`
	MinReferrals   int64              `json:"min_referrals"`
	MinClicks      int64              `json:"min_clicks"`
	MinConversions int64              `json:"min_conversions"`
	MinEarnings    models.Money       `json:"min_earnings"`
	Description    string             `json:"description,omitempty"`
	Benefits       models.StringArray `json:"benefits,omitempty"`
	Color          string             `json:"color,omitempty"`
	Icon           string             `json:"icon,omitempty"`
}

// GetConfig 获取全局配置
func (h *Handler) GetConfig(c *gin.Context) {
	// 默认配置
	defaults := map[string]interface{}{
		"languages":                        constants.SupportedLocales,
		constants.SettingFieldSiteCurrency: constants.SiteCurrencyDefault,
		"contact": map[string]interface{}{
			"email": "support@partnerdesk.io",
		},
	}

	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), constants.CacheKeyPublicConfig, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	data, err := h.SettingService.GetConfig(defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}

	_ = cache.SetJSON(c.Request.Context(), constants.CacheKeyPublicConfig, data, publicConfigCacheTTL)
	response.Success(c, data)
}

// GetTiers 获取启用中的等级表，供推广者了解晋升门槛
func (h *Handler) GetTiers(c *gin.Context) {
	var cached []PublicTierView
	if hit, err := cache.GetJSON(c.Request.Context(), constants.CacheKeyPublicTiers, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	tiers, _, err := h.TierService.ListTiers(repository.TierListFilter{
		Page:     1,
		PageSize: 200,
		Status:   constants.TierStatusActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.tier_fetch_failed", err)
		return
	}

	views := make([]PublicTierView, 0, len(tiers))
	for i := range tiers {
		views = append(views, newPublicTierView(&tiers[i]))
	}

	_ = cache.SetJSON(c.Request.Context(), constants.CacheKeyPublicTiers, views, publicTiersCacheTTL)
	response.Success(c, views)
}

func newPublicTierView(tier *models.Tier) PublicTierView {
	rate, _ := tier.CommissionRate.Decimal.Float64()
	return PublicTierView{
		ID:             tier.ID,
		Name:           tier.Name,
		Level:          tier.Level,
		CommissionRate: rate,
		MinReferrals:   tier.MinReferrals,
		MinClicks:      tier.MinClicks,
		MinConversions: tier.MinConversions,
		MinEarnings:    tier.MinEarnings,
		Description:    tier.Description,
		Benefits:       tier.Benefits,
		Color:          tier.Color,
		Icon:           tier.Icon,
	}
}
