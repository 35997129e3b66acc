package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentMethod 提现支付方式配置表
type PaymentMethod struct {
	ID     uint   `gorm:"primarykey" json:"id"`                               // 主键
	Name   string `gorm:"type:varchar(64);not null;uniqueIndex" json:"name"`  // 名称
	Code   string `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`  // 方式编码
	Status string `gorm:"type:varchar(20);not null;index" json:"status"`      // 状态

	SupportedCurrencies StringArray `gorm:"type:json" json:"supported_currencies"` // 支持币种

	// 单笔金额边界，0 表示该侧不限
	MinAmount Money `gorm:"type:decimal(14,2)" json:"min_amount"` // 单笔最低
	MaxAmount Money `gorm:"type:decimal(14,2)" json:"max_amount"` // 单笔最高

	// 手续费配置
	FixedFee   Money `gorm:"type:decimal(14,2)" json:"fixed_fee"`   // 固定手续费
	PercentFee Money `gorm:"type:decimal(6,2)" json:"percent_fee"`  // 百分比手续费（百分比）
	MinFee     Money `gorm:"type:decimal(14,2)" json:"min_fee"`     // 手续费下限
	MaxFee     Money `gorm:"type:decimal(14,2)" json:"max_fee"`     // 手续费上限

	// 滚动限额，0 表示不限
	DailyLimit   Money `gorm:"type:decimal(14,2)" json:"daily_limit"`   // 单日限额（UTC 零点起算）
	MonthlyLimit Money `gorm:"type:decimal(14,2)" json:"monthly_limit"` // 单月限额（UTC 月首起算）

	// 资质门槛
	RequireKYC         bool `gorm:"not null;default:false" json:"require_kyc"`          // 要求 KYC
	RequireBankAccount bool `gorm:"not null;default:false" json:"require_bank_account"` // 要求银行账号
	RequireTaxID       bool `gorm:"not null;default:false" json:"require_tax_id"`       // 要求税号
	RequireAddress     bool `gorm:"not null;default:false" json:"require_address"`      // 要求地址
	RequirePhone       bool `gorm:"not null;default:false" json:"require_phone"`        // 要求电话

	ProcessingDays int    `gorm:"not null;default:0" json:"processing_days"` // 预计到账天数
	Description    string `gorm:"type:varchar(255)" json:"description"`      // 描述
	Icon           string `gorm:"type:varchar(64)" json:"icon"`              // 展示图标

	CreatedAt time.Time      `json:"created_at"` // 创建时间
	UpdatedAt time.Time      `json:"updated_at"` // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (PaymentMethod) TableName() string {
	return "payment_methods"
}
