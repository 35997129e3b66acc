package admin

import (
	"errors"
	"strconv"

	"github.com/partnerdesk/internal/http/response"
	"github.com/partnerdesk/internal/repository"
	"github.com/partnerdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentMethodUpsertRequest 支付方式创建/更新请求
type PaymentMethodUpsertRequest struct {
	Name                string   `json:"name" binding:"required"`
	Code                string   `json:"code" binding:"required"`
	Status              string   `json:"status"`
	SupportedCurrencies []string `json:"supported_currencies"`
	MinAmount           float64  `json:"min_amount"`
	MaxAmount           float64  `json:"max_amount"`
	FixedFee            float64  `json:"fixed_fee"`
	PercentFee          float64  `json:"percent_fee"`
	MinFee              float64  `json:"min_fee"`
	MaxFee              float64  `json:"max_fee"`
	DailyLimit          float64  `json:"daily_limit"`
	MonthlyLimit        float64  `json:"monthly_limit"`
	RequireKYC          bool     `json:"require_kyc"`
	RequireBankAccount  bool     `json:"require_bank_account"`
	RequireTaxID        bool     `json:"require_tax_id"`
	RequireAddress      bool     `json:"require_address"`
	RequirePhone        bool     `json:"require_phone"`
	ProcessingDays      int      `json:"processing_days"`
	Description         string   `json:"description"`
	Icon                string   `json:"icon"`
}

// PaymentMethodStatusRequest 支付方式状态更新请求
type PaymentMethodStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PaymentValidationRequest 提现校验预检请求
type PaymentValidationRequest struct {
	ProfileID uint    `json:"profile_id" binding:"required"`
	MethodID  uint    `json:"method_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Currency  string  `json:"currency"`
}

// CompareMethodsRequest 支付方式对比请求
type CompareMethodsRequest struct {
	MethodIDs []uint  `json:"method_ids" binding:"required"`
	Amount    float64 `json:"amount"`
}

func (r PaymentMethodUpsertRequest) toServiceInput() service.PaymentMethodUpsertInput {
	return service.PaymentMethodUpsertInput{
		Name:                r.Name,
		Code:                r.Code,
		Status:              r.Status,
		SupportedCurrencies: r.SupportedCurrencies,
		MinAmount:           decimal.NewFromFloat(r.MinAmount),
		MaxAmount:           decimal.NewFromFloat(r.MaxAmount),
		FixedFee:            decimal.NewFromFloat(r.FixedFee),
		PercentFee:          decimal.NewFromFloat(r.PercentFee),
		MinFee:              decimal.NewFromFloat(r.MinFee),
		MaxFee:              decimal.NewFromFloat(r.MaxFee),
		DailyLimit:          decimal.NewFromFloat(r.DailyLimit),
		MonthlyLimit:        decimal.NewFromFloat(r.MonthlyLimit),
		RequireKYC:          r.RequireKYC,
		RequireBankAccount:  r.RequireBankAccount,
		RequireTaxID:        r.RequireTaxID,
		RequireAddress:      r.RequireAddress,
		RequirePhone:        r.RequirePhone,
		ProcessingDays:      r.ProcessingDays,
		Description:         r.Description,
		Icon:                r.Icon,
	}
}

// ListPaymentMethods 支付方式列表
func (h *Handler) ListPaymentMethods(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	methods, total, err := h.PaymentMethodService.ListMethods(repository.PaymentMethodListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   trimQuery(c, "status"),
		Currency: trimQuery(c, "currency"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_method_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, methods, response.BuildPagination(page, pageSize, total))
}

// GetPaymentMethod 支付方式详情
func (h *Handler) GetPaymentMethod(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	method, err := h.PaymentMethodService.GetMethod(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.payment_method_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.payment_method_fetch_failed", err)
		return
	}
	response.Success(c, method)
}

// CreatePaymentMethod 创建支付方式
func (h *Handler) CreatePaymentMethod(c *gin.Context) {
	var req PaymentMethodUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	method, err := h.PaymentMethodService.CreateMethod(req.toServiceInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentMethodCodeExists):
			respondError(c, response.CodeBadRequest, "error.payment_method_code_exists", nil)
		case errors.Is(err, service.ErrPaymentMethodStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, method)
}

// UpdatePaymentMethod 更新支付方式
func (h *Handler) UpdatePaymentMethod(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req PaymentMethodUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	method, err := h.PaymentMethodService.UpdateMethod(uint(id), req.toServiceInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.payment_method_not_found", nil)
		case errors.Is(err, service.ErrPaymentMethodCodeExists):
			respondError(c, response.CodeBadRequest, "error.payment_method_code_exists", nil)
		case errors.Is(err, service.ErrPaymentMethodStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, method)
}

// UpdatePaymentMethodStatus 更新支付方式状态
func (h *Handler) UpdatePaymentMethodStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req PaymentMethodStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.PaymentMethodService.SetMethodStatus(uint(id), req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.payment_method_not_found", nil)
		case errors.Is(err, service.ErrPaymentMethodStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, nil)
}

// ValidatePaymentPreview 提现校验预检（不落库）
func (h *Handler) ValidatePaymentPreview(c *gin.Context) {
	var req PaymentValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.PaymentMethodService.ValidatePayment(req.ProfileID, req.MethodID, decimal.NewFromFloat(req.Amount), req.Currency)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.payment_method_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.payment_method_fetch_failed", err)
		return
	}
	response.Success(c, result)
}

// GetPaymentMethodHealth 支付方式健康度
func (h *Handler) GetPaymentMethodHealth(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	health, err := h.PaymentMethodService.GetMethodHealth(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.payment_method_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.payment_method_fetch_failed", err)
		return
	}
	response.Success(c, health)
}

// GetPaymentMethodUsageStats 支付方式使用统计
func (h *Handler) GetPaymentMethodUsageStats(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	topN, _ := strconv.Atoi(c.DefaultQuery("top", "10"))

	stats, err := h.PaymentMethodService.GetMethodUsageStats(uint(id), topN)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.payment_method_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.payment_method_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// ComparePaymentMethods 支付方式横向对比
func (h *Handler) ComparePaymentMethods(c *gin.Context) {
	var req CompareMethodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if len(req.MethodIDs) == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	items, err := h.PaymentMethodService.CompareMethods(req.MethodIDs, decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondError(c, response.CodeInternal, "error.payment_method_fetch_failed", err)
		return
	}
	response.Success(c, items)
}
