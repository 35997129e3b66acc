package models

import (
	"time"

	"gorm.io/gorm"
)

// AffiliateProfile 推广返利用户档案
type AffiliateProfile struct {
	ID            uint   `gorm:"primarykey" json:"id"`                              // 主键
	UserID        uint   `gorm:"not null;uniqueIndex" json:"user_id"`               // 用户ID
	AffiliateCode string `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"` // 联盟短ID
	Status        string `gorm:"type:varchar(20);not null;index" json:"status"`     // 状态

	// 累计业绩指标，等级引擎据此评估晋升
	TotalClicks      int64 `gorm:"not null;default:0" json:"total_clicks"`      // 累计点击
	TotalConversions int64 `gorm:"not null;default:0" json:"total_conversions"` // 累计成交
	TotalReferrals   int64 `gorm:"not null;default:0" json:"total_referrals"`   // 累计邀请
	TotalEarnings    Money `gorm:"type:decimal(14,2)" json:"total_earnings"`    // 累计收益

	// 合规资料，支付方式的资质门槛据此校验
	KYCVerified bool   `gorm:"not null;default:false" json:"kyc_verified"` // KYC 认证
	BankAccount string `gorm:"type:varchar(128)" json:"bank_account"`      // 收款银行账号
	TaxID       string `gorm:"type:varchar(64)" json:"tax_id"`             // 税号
	Address     string `gorm:"type:varchar(255)" json:"address"`           // 联系地址
	Phone       string `gorm:"type:varchar(32)" json:"phone"`              // 联系电话

	CreatedAt time.Time      `gorm:"index" json:"created_at"` // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"` // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`          // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 用户信息
}

// TableName 指定表名
func (AffiliateProfile) TableName() string {
	return "affiliate_profiles"
}
