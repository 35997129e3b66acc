package models

import "time"

// TierAssignment 等级归属记录表；同一档案最多存在一条 ACTIVE 记录
type TierAssignment struct {
	ID         uint       `gorm:"primarykey" json:"id"`                                          // 主键
	ProfileID  uint       `gorm:"not null;index:idx_tier_assign_profile_status" json:"profile_id"` // 档案ID
	TierID     uint       `gorm:"not null;index" json:"tier_id"`                                 // 等级ID
	Status     string     `gorm:"type:varchar(20);not null;index:idx_tier_assign_profile_status" json:"status"` // 状态
	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`                                   // 生效时间
	ExpiredAt  *time.Time `json:"expired_at"`                                                    // 失效时间
	Reason     string     `gorm:"type:varchar(255)" json:"reason"`                               // 归属原因

	CreatedAt time.Time `json:"created_at"` // 创建时间
	UpdatedAt time.Time `json:"updated_at"` // 更新时间

	Tier Tier `gorm:"foreignKey:TierID" json:"tier,omitempty"` // 等级信息
}

// TableName 指定表名
func (TierAssignment) TableName() string {
	return "tier_assignments"
}
