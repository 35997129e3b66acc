package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/partnerdesk/internal/http/response"
	"github.com/partnerdesk/internal/i18n"
	"github.com/partnerdesk/internal/repository"
	"github.com/partnerdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PayoutRequestBody 提现申请请求
type PayoutRequestBody struct {
	ProfileID uint    `json:"profile_id" binding:"required"`
	MethodID  uint    `json:"method_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Currency  string  `json:"currency"`
}

// PayoutFailRequest 提现失败标记请求
type PayoutFailRequest struct {
	Reason string `json:"reason"`
}

// ListPayouts 提现流水列表
func (h *Handler) ListPayouts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	profileID, _ := strconv.ParseUint(trimQuery(c, "profile_id"), 10, 64)
	methodID, _ := strconv.ParseUint(trimQuery(c, "method_id"), 10, 64)

	createdFrom, err := parseTimeNullable(trimQuery(c, "created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(trimQuery(c, "created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rows, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:        page,
		PageSize:    pageSize,
		ProfileID:   uint(profileID),
		MethodID:    uint(methodID),
		Status:      trimQuery(c, "status"),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.payout_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetPayout 提现详情
func (h *Handler) GetPayout(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	payout, err := h.PayoutService.GetPayout(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.payout_fetch_failed", err)
		return
	}
	response.Success(c, payout)
}

// RequestPayout 代为发起提现申请
func (h *Handler) RequestPayout(c *gin.Context) {
	var req PayoutRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.PayoutService.RequestPayout(req.ProfileID, req.MethodID, decimal.NewFromFloat(req.Amount), strings.TrimSpace(req.Currency))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPayoutValidationFailed):
			// 校验失败时返回具体的失败项
			msg := i18n.T(i18n.ResolveLocale(c), "error.payout_validation_failed")
			response.ErrorWithData(c, response.CodeBadRequest, msg, result)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
		case errors.Is(err, service.ErrAffiliateDisabled):
			respondError(c, response.CodeBadRequest, "error.affiliate_disabled", nil)
		case errors.Is(err, service.ErrPayoutAmountInvalid):
			respondError(c, response.CodeBadRequest, "error.payout_amount_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, result)
}

// MarkPayoutProcessing 标记提现进入处理中
func (h *Handler) MarkPayoutProcessing(c *gin.Context) {
	h.transitionPayout(c, func(id uint) error {
		return h.PayoutService.MarkProcessing(id)
	})
}

// CompletePayout 标记提现完成
func (h *Handler) CompletePayout(c *gin.Context) {
	h.transitionPayout(c, func(id uint) error {
		return h.PayoutService.CompletePayout(id)
	})
}

// FailPayout 标记提现失败
func (h *Handler) FailPayout(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req PayoutFailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.PayoutService.FailPayout(uint(id), strings.TrimSpace(req.Reason)); err != nil {
		h.respondPayoutTransitionError(c, err)
		return
	}
	response.Success(c, nil)
}

// CancelPayout 取消待处理的提现
func (h *Handler) CancelPayout(c *gin.Context) {
	h.transitionPayout(c, func(id uint) error {
		return h.PayoutService.CancelPayout(id)
	})
}

func (h *Handler) transitionPayout(c *gin.Context, fn func(id uint) error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := fn(uint(id)); err != nil {
		h.respondPayoutTransitionError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) respondPayoutTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "error.payout_not_found", nil)
	case errors.Is(err, service.ErrPayoutStatusInvalid):
		respondError(c, response.CodeBadRequest, "error.payout_status_invalid", nil)
	default:
		respondError(c, response.CodeInternal, "error.save_failed", err)
	}
}
