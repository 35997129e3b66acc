package models

import (
	"time"

	"gorm.io/gorm"
)

// Tier 推广等级定义表
type Tier struct {
	ID             uint   `gorm:"primarykey" json:"id"`                               // 主键
	Name           string `gorm:"type:varchar(64);not null;uniqueIndex" json:"name"`  // 等级名称
	Level          int    `gorm:"not null;uniqueIndex" json:"level"`                  // 等级序号，数值越大等级越高
	Description    string `gorm:"type:varchar(255)" json:"description"`               // 描述
	CommissionRate Money  `gorm:"type:decimal(6,2)" json:"commission_rate"`           // 佣金比例（百分比）

	// 晋升门槛，0 表示该维度无要求
	MinReferrals   int64 `gorm:"not null;default:0" json:"min_referrals"`   // 最低邀请数
	MinConversions int64 `gorm:"not null;default:0" json:"min_conversions"` // 最低成交数
	MinClicks      int64 `gorm:"not null;default:0" json:"min_clicks"`      // 最低点击数
	MinEarnings    Money `gorm:"type:decimal(14,2)" json:"min_earnings"`    // 最低收益
	TimePeriodDays int   `gorm:"not null;default:0" json:"time_period_days"` // 统计周期（天），仅展示

	Benefits StringArray `gorm:"type:json" json:"benefits"`                     // 权益列表
	Color    string      `gorm:"type:varchar(16)" json:"color"`                 // 展示颜色
	Icon     string      `gorm:"type:varchar(64)" json:"icon"`                  // 展示图标
	Status   string      `gorm:"type:varchar(20);not null;index" json:"status"` // 状态

	CreatedAt time.Time      `json:"created_at"` // 创建时间
	UpdatedAt time.Time      `json:"updated_at"` // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Tier) TableName() string {
	return "tiers"
}
