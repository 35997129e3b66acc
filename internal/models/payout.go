package models

import "time"

// Payout 提现流水表；限额窗口统计包含已完成与在途记录
type Payout struct {
	ID        uint `gorm:"primarykey" json:"id"`                                       // 主键
	ProfileID uint `gorm:"not null;index:idx_payout_profile_method" json:"profile_id"` // 档案ID
	MethodID  uint `gorm:"not null;index:idx_payout_profile_method" json:"method_id"`  // 支付方式ID

	Amount    Money  `gorm:"type:decimal(14,2)" json:"amount"`              // 提现金额
	Fee       Money  `gorm:"type:decimal(14,2)" json:"fee"`                 // 手续费
	NetAmount Money  `gorm:"type:decimal(14,2)" json:"net_amount"`          // 实际到账
	Currency  string `gorm:"type:varchar(8);not null" json:"currency"`      // 币种
	Status    string `gorm:"type:varchar(20);not null;index" json:"status"` // 状态

	RequestedAt time.Time  `gorm:"not null;index" json:"requested_at"` // 发起时间
	CompletedAt *time.Time `json:"completed_at"`                       // 完成时间
	FailReason  string     `gorm:"type:varchar(255)" json:"fail_reason"` // 失败原因

	CreatedAt time.Time `json:"created_at"` // 创建时间
	UpdatedAt time.Time `json:"updated_at"` // 更新时间

	Method PaymentMethod `gorm:"foreignKey:MethodID" json:"method,omitempty"` // 支付方式信息
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}
