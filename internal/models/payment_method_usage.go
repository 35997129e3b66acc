package models

import "time"

// PaymentMethodUsage 档案维度的支付方式使用统计表
type PaymentMethodUsage struct {
	ID        uint `gorm:"primarykey" json:"id"`                                           // 主键
	ProfileID uint `gorm:"not null;uniqueIndex:idx_method_usage_profile" json:"profile_id"` // 档案ID
	MethodID  uint `gorm:"not null;uniqueIndex:idx_method_usage_profile" json:"method_id"`  // 支付方式ID

	TxCount     int64 `gorm:"not null;default:0" json:"tx_count"`      // 累计笔数
	TotalAmount Money `gorm:"type:decimal(14,2)" json:"total_amount"`  // 累计金额

	// 以笔数加权的滚动均值
	SuccessRate        Money `gorm:"type:decimal(6,2)" json:"success_rate"`         // 成功率（百分比）
	AvgProcessingHours Money `gorm:"type:decimal(10,2)" json:"avg_processing_hours"` // 平均处理时长（小时）

	LastUsedAt *time.Time `json:"last_used_at"` // 最近使用时间
	CreatedAt  time.Time  `json:"created_at"`   // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`   // 更新时间
}

// TableName 指定表名
func (PaymentMethodUsage) TableName() string {
	return "payment_method_usages"
}
