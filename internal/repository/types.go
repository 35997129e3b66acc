package repository

import "time"

// TierListFilter 查询等级列表的过滤条件
type TierListFilter struct {
	Page     int
	PageSize int
	Status   string
}

// TierAssignmentListFilter 查询等级归属记录的过滤条件
type TierAssignmentListFilter struct {
	Page      int
	PageSize  int
	ProfileID uint
	TierID    uint
	Status    string
}

// PaymentMethodListFilter 查询支付方式列表的过滤条件
type PaymentMethodListFilter struct {
	Page       int
	PageSize   int
	Status     string
	Currency   string
	ActiveOnly bool
}

// PayoutListFilter 查询提现流水的过滤条件
type PayoutListFilter struct {
	Page        int
	PageSize    int
	ProfileID   uint
	MethodID    uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AffiliateProfileListFilter 查询推广档案列表的过滤条件
type AffiliateProfileListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Code     string
	Status   string
	Keyword  string
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuthzAuditLogListFilter 查询权限审计日志列表的过滤条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetAdminID   uint
	Action          string
	Role            string
	Object          string
	Method          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
