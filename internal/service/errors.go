package service

import "errors"

// 业务错误哨兵，handler 层通过 errors.Is 映射响应码
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrWeakPassword       = errors.New("weak password")
	ErrUserDisabled       = errors.New("user disabled")
	ErrInvalidEmail       = errors.New("invalid email")

	ErrAffiliateNotOpened            = errors.New("affiliate profile not opened")
	ErrAffiliateAlreadyOpened        = errors.New("affiliate profile already opened")
	ErrAffiliateDisabled             = errors.New("affiliate profile disabled")
	ErrAffiliateCodeInvalid          = errors.New("affiliate code invalid")
	ErrAffiliateProfileStatusInvalid = errors.New("affiliate profile status invalid")
	ErrAffiliateEarningsInvalid      = errors.New("affiliate earnings amount invalid")

	ErrTierNameExists   = errors.New("tier name already exists")
	ErrTierLevelExists  = errors.New("tier level already exists")
	ErrTierLevelInvalid = errors.New("tier level invalid")
	ErrTierInactive     = errors.New("tier inactive")
	ErrTierInUse        = errors.New("tier has active assignments")

	ErrPaymentMethodCodeExists    = errors.New("payment method code already exists")
	ErrPaymentMethodStatusInvalid = errors.New("payment method status invalid")

	ErrPayoutAmountInvalid    = errors.New("payout amount invalid")
	ErrPayoutStatusInvalid    = errors.New("payout status invalid")
	ErrPayoutValidationFailed = errors.New("payout validation failed")

	ErrDashboardRangeInvalid = errors.New("dashboard range invalid")
)
