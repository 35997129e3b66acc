package public

import (
	"strings"

	"github.com/partnerdesk/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TrackClick 按联盟短ID记录一次推广点击
func (h *Handler) TrackClick(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.AffiliateService.RecordClick(code); err != nil {
		respondTrackingError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// TrackConversionRequest 成交上报请求
type TrackConversionRequest struct {
	Earnings string `json:"earnings"`
}

// TrackConversion 按联盟短ID记录一次成交并累计收益
func (h *Handler) TrackConversion(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req TrackConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	earnings := decimal.Zero
	if raw := strings.TrimSpace(req.Earnings); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.earnings_invalid", nil)
			return
		}
		earnings = parsed
	}

	if err := h.AffiliateService.RecordConversion(code, earnings); err != nil {
		respondTrackingError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// TrackReferral 按联盟短ID记录一次邀请
func (h *Handler) TrackReferral(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.AffiliateService.RecordReferral(code); err != nil {
		respondTrackingError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// GetAffiliateByCode 按联盟短ID查询公开档案信息
func (h *Handler) GetAffiliateByCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	profile, err := h.AffiliateService.GetProfileByCode(code)
	if err != nil {
		respondTrackingError(c, err)
		return
	}
	response.Success(c, gin.H{
		"code":   profile.AffiliateCode,
		"status": profile.Status,
	})
}
