package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/partnerdesk/internal/http/response"
	"github.com/partnerdesk/internal/repository"
	"github.com/partnerdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// AffiliateProfileStatusRequest 推广档案状态更新请求
type AffiliateProfileStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AffiliateComplianceRequest 推广档案合规资料更新请求
type AffiliateComplianceRequest struct {
	KYCVerified *bool   `json:"kyc_verified"`
	BankAccount *string `json:"bank_account"`
	TaxID       *string `json:"tax_id"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
}

// OpenAffiliateRequest 开通推广档案请求
type OpenAffiliateRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ListAffiliateProfiles 管理端推广档案列表
func (h *Handler) ListAffiliateProfiles(c *gin.Context) {
	if h.AffiliateService == nil {
		respondError(c, response.CodeInternal, "error.affiliate_fetch_failed", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(trimQuery(c, "user_id"), 10, 64)

	rows, total, err := h.AffiliateService.ListProfiles(repository.AffiliateProfileListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Status:   trimQuery(c, "status"),
		Code:     trimQuery(c, "code"),
		Keyword:  trimQuery(c, "keyword"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.affiliate_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetAffiliateProfile 管理端推广档案详情（含等级与最近提现）
func (h *Handler) GetAffiliateProfile(c *gin.Context) {
	if h.AffiliateService == nil {
		respondError(c, response.CodeInternal, "error.affiliate_fetch_failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	dashboard, err := h.AffiliateService.GetDashboard(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.affiliate_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.affiliate_fetch_failed", err)
		return
	}
	response.Success(c, dashboard)
}

// OpenAffiliateProfile 管理端为用户开通推广档案
func (h *Handler) OpenAffiliateProfile(c *gin.Context) {
	if h.AffiliateService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	var req OpenAffiliateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	profile, err := h.AffiliateService.OpenAffiliate(req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeBadRequest, "error.user_disabled", nil)
		case errors.Is(err, service.ErrAffiliateAlreadyOpened):
			respondError(c, response.CodeBadRequest, "error.affiliate_already_opened", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, profile)
}

// UpdateAffiliateProfileStatus 管理端更新推广档案状态
func (h *Handler) UpdateAffiliateProfileStatus(c *gin.Context) {
	if h.AffiliateService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req AffiliateProfileStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	row, err := h.AffiliateService.UpdateProfileStatus(uint(id), strings.TrimSpace(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.affiliate_not_found", nil)
		case errors.Is(err, service.ErrAffiliateProfileStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, row)
}

// UpdateAffiliateCompliance 管理端更新推广档案合规资料
func (h *Handler) UpdateAffiliateCompliance(c *gin.Context) {
	if h.AffiliateService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req AffiliateComplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	row, err := h.AffiliateService.UpdateCompliance(uint(id), service.AffiliateComplianceInput{
		KYCVerified: req.KYCVerified,
		BankAccount: req.BankAccount,
		TaxID:       req.TaxID,
		Address:     req.Address,
		Phone:       req.Phone,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.affiliate_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, row)
}
