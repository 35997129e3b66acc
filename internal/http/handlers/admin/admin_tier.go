package admin

import (
	"errors"
	"strconv"

	"github.com/partnerdesk/internal/cache"
	"github.com/partnerdesk/internal/constants"
	"github.com/partnerdesk/internal/http/response"
	"github.com/partnerdesk/internal/repository"
	"github.com/partnerdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TierUpsertRequest 等级创建/更新请求
type TierUpsertRequest struct {
	Name           string   `json:"name" binding:"required"`
	Level          int      `json:"level"`
	Description    string   `json:"description"`
	CommissionRate float64  `json:"commission_rate"`
	MinReferrals   int64    `json:"min_referrals"`
	MinConversions int64    `json:"min_conversions"`
	MinClicks      int64    `json:"min_clicks"`
	MinEarnings    float64  `json:"min_earnings"`
	TimePeriodDays int      `json:"time_period_days"`
	Benefits       []string `json:"benefits"`
	Color          string   `json:"color"`
	Icon           string   `json:"icon"`
	Status         string   `json:"status"`
}

// AssignTierRequest 手动指派等级请求
type AssignTierRequest struct {
	ProfileID uint `json:"profile_id" binding:"required"`
	TierID    uint `json:"tier_id" binding:"required"`
}

func (r TierUpsertRequest) toServiceInput() service.TierUpsertInput {
	return service.TierUpsertInput{
		Name:           r.Name,
		Level:          r.Level,
		Description:    r.Description,
		CommissionRate: decimal.NewFromFloat(r.CommissionRate),
		MinReferrals:   r.MinReferrals,
		MinConversions: r.MinConversions,
		MinClicks:      r.MinClicks,
		MinEarnings:    decimal.NewFromFloat(r.MinEarnings),
		TimePeriodDays: r.TimePeriodDays,
		Benefits:       r.Benefits,
		Color:          r.Color,
		Icon:           r.Icon,
		Status:         r.Status,
	}
}

// ListTiers 等级列表
func (h *Handler) ListTiers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	page, pageSize = normalizePagination(page, pageSize)

	tiers, total, err := h.TierService.ListTiers(repository.TierListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   trimQuery(c, "status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.tier_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, tiers, response.BuildPagination(page, pageSize, total))
}

// GetTier 等级详情
func (h *Handler) GetTier(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	tier, err := h.TierService.GetTier(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.tier_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.tier_fetch_failed", err)
		return
	}
	response.Success(c, tier)
}

// CreateTier 创建等级
func (h *Handler) CreateTier(c *gin.Context) {
	var req TierUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	tier, err := h.TierService.CreateTier(req.toServiceInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTierNameExists):
			respondError(c, response.CodeBadRequest, "error.tier_name_exists", nil)
		case errors.Is(err, service.ErrTierLevelExists):
			respondError(c, response.CodeBadRequest, "error.tier_level_exists", nil)
		case errors.Is(err, service.ErrTierLevelInvalid):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	h.flushPublicTierCache(c)
	response.Success(c, tier)
}

// UpdateTier 更新等级
func (h *Handler) UpdateTier(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req TierUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	tier, err := h.TierService.UpdateTier(uint(id), req.toServiceInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.tier_not_found", nil)
		case errors.Is(err, service.ErrTierNameExists):
			respondError(c, response.CodeBadRequest, "error.tier_name_exists", nil)
		case errors.Is(err, service.ErrTierLevelExists):
			respondError(c, response.CodeBadRequest, "error.tier_level_exists", nil)
		case errors.Is(err, service.ErrTierLevelInvalid):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	h.flushPublicTierCache(c)
	response.Success(c, tier)
}

// DeleteTier 删除等级
func (h *Handler) DeleteTier(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.TierService.DeleteTier(uint(id)); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.tier_not_found", nil)
		case errors.Is(err, service.ErrTierInUse):
			respondError(c, response.CodeBadRequest, "error.tier_in_use", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	h.flushPublicTierCache(c)
	response.Success(c, nil)
}

// AssignTier 手动指派等级
func (h *Handler) AssignTier(c *gin.Context) {
	var req AssignTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	assignment, err := h.TierService.AssignTier(req.ProfileID, req.TierID, constants.TierAssignReasonManual)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.tier_not_found", nil)
		case errors.Is(err, service.ErrTierInactive):
			respondError(c, response.CodeBadRequest, "error.tier_inactive", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, assignment)
}

// ListTierAssignments 等级归属记录列表
func (h *Handler) ListTierAssignments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	profileID, _ := strconv.ParseUint(trimQuery(c, "profile_id"), 10, 64)
	tierID, _ := strconv.ParseUint(trimQuery(c, "tier_id"), 10, 64)

	rows, total, err := h.TierService.ListAssignments(repository.TierAssignmentListFilter{
		Page:      page,
		PageSize:  pageSize,
		ProfileID: uint(profileID),
		TierID:    uint(tierID),
		Status:    trimQuery(c, "status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.tier_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetTierProgress 查询指定档案的等级进度
func (h *Handler) GetTierProgress(c *gin.Context) {
	profileID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || profileID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.TierService.CalculateTierProgress(uint(profileID))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.affiliate_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.tier_fetch_failed", err)
		return
	}
	response.Success(c, result)
}

// RunTierAutoAssign 触发一轮批量自动晋升
func (h *Handler) RunTierAutoAssign(c *gin.Context) {
	batchSize, _ := strconv.Atoi(c.DefaultQuery("batch_size", "200"))

	result, err := h.TierService.AutoAssignTiers(batchSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, result)
}

// GetTierStats 等级统计
func (h *Handler) GetTierStats(c *gin.Context) {
	stats, err := h.TierService.GetTierStats()
	if err != nil {
		respondError(c, response.CodeInternal, "error.tier_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// GetTierLeaderboard 等级内收益排行榜
func (h *Handler) GetTierLeaderboard(c *gin.Context) {
	tierID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tierID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, err := h.TierService.GetTierLeaderboard(uint(tierID), limit)
	if err != nil {
		respondError(c, response.CodeInternal, "error.tier_fetch_failed", err)
		return
	}
	response.Success(c, rows)
}

func (h *Handler) flushPublicTierCache(c *gin.Context) {
	_ = cache.Del(c.Request.Context(), constants.CacheKeyPublicTiers)
}
