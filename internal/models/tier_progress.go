package models

import "time"

// TierProgress 等级进度快照表，每个档案一条，按需刷新
type TierProgress struct {
	ID         uint `gorm:"primarykey" json:"id"`                 // 主键
	ProfileID  uint `gorm:"not null;uniqueIndex" json:"profile_id"` // 档案ID
	TierID     uint `gorm:"not null;default:0" json:"tier_id"`    // 当前等级ID，0 表示未定级
	NextTierID uint `gorm:"not null;default:0" json:"next_tier_id"` // 下一等级ID，0 表示已是最高级

	// 各维度达成率（百分比，0-100）
	ReferralsRatio   Money `gorm:"type:decimal(6,2)" json:"referrals_ratio"`   // 邀请达成率
	ConversionsRatio Money `gorm:"type:decimal(6,2)" json:"conversions_ratio"` // 成交达成率
	ClicksRatio      Money `gorm:"type:decimal(6,2)" json:"clicks_ratio"`      // 点击达成率
	EarningsRatio    Money `gorm:"type:decimal(6,2)" json:"earnings_ratio"`    // 收益达成率
	OverallProgress  Money `gorm:"type:decimal(6,2)" json:"overall_progress"`  // 综合进度（四维平均）

	ComputedAt time.Time `gorm:"not null" json:"computed_at"` // 计算时间
	CreatedAt  time.Time `json:"created_at"`                  // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                  // 更新时间
}

// TableName 指定表名
func (TierProgress) TableName() string {
	return "tier_progresses"
}
