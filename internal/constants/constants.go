package constants

// 推广档案状态常量
const (
	AffiliateProfileStatusActive   = "active"
	AffiliateProfileStatusDisabled = "disabled"
)

// 等级状态常量
const (
	TierStatusActive   = "active"
	TierStatusInactive = "inactive"
)

// 等级归属状态常量
const (
	TierAssignmentStatusActive  = "active"
	TierAssignmentStatusExpired = "expired"
	TierAssignmentStatusRevoked = "revoked"
)

// 等级归属原因常量
const (
	TierAssignReasonAuto   = "auto"
	TierAssignReasonManual = "manual"
)

// 支付方式状态常量
const (
	PaymentMethodStatusActive    = "active"
	PaymentMethodStatusInactive  = "inactive"
	PaymentMethodStatusSuspended = "suspended"
)

// 提现状态常量
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
	PayoutStatusCancelled  = "cancelled"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault      = "default"
	TaskPayoutProcess = "payout:process"
	TaskTierRecheck   = "tier:recheck"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "pdk"
)

// 缓存键常量
const (
	CacheKeyPublicConfig = "public:config"
	CacheKeyPublicTiers  = "public:tiers"
)

// 设置键常量
const (
	SettingKeySiteConfig       = "site_config"
	SettingKeyPayoutConfig     = "payout_config"
	SettingFieldSiteCurrency   = "currency"
	SettingFieldPayoutCurrency = "default_currency"
)

// 币种常量
const (
	SiteCurrencyDefault = "USD"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleEnUS}
