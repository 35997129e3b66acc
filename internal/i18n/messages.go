package i18n

// messages 按语言组织的文案表，键在各语言下保持一致
var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":  "请求参数不合法",
		"error.unauthorized": "未登录或登录已失效",
		"error.forbidden":    "没有权限执行该操作",
		"error.save_failed":  "保存失败，请稍后重试",

		"error.admin_login_invalid":         "用户名或密码错误",
		"error.login_failed":                "登录失败，请稍后重试",
		"error.login_too_many":              "登录尝试过于频繁，请稍后再试",
		"error.password_old_invalid":        "原密码错误",
		"error.password_weak":               "密码强度不足",
		"error.password_min_length":         "密码长度不能少于 %d 位",
		"error.password_require_upper":      "密码必须包含大写字母",
		"error.password_require_lower":      "密码必须包含小写字母",
		"error.password_require_number":     "密码必须包含数字",
		"error.password_require_special":    "密码必须包含特殊字符",
		"error.jwt_secret_missing":          "服务端鉴权配置缺失",
		"error.token_invalid":               "登录凭证无效",
		"error.token_revoked":               "登录凭证已失效，请重新登录",
		"error.auth_header_missing":         "缺少鉴权头",
		"error.auth_header_invalid":         "鉴权头格式不正确",
		"error.rate_limited":                "请求过于频繁，请稍后再试",
		"error.rate_limit_unavailable":      "限流服务暂不可用",
		"error.admin_id_invalid":            "管理员身份标识缺失",
		"error.admin_id_type_invalid":       "管理员身份标识类型错误",
		"error.admin_username_invalid":      "管理员用户名不合法",
		"error.admin_username_exists":       "管理员用户名已存在",
		"error.admin_create_failed":         "创建管理员失败",
		"error.admin_update_failed":         "更新管理员失败",
		"error.admin_delete_failed":         "删除管理员失败",
		"error.admin_delete_self_forbidden": "不能删除当前登录的管理员",
		"error.admin_delete_last_forbidden": "至少保留一个管理员账号",
		"error.admin_delete_protected":      "该管理员受保护，禁止删除",

		"error.user_fetch_failed":    "查询用户失败",
		"error.user_update_failed":   "更新用户失败",
		"error.user_not_found":       "用户不存在",
		"error.user_disabled":        "用户已被禁用",
		"error.user_id_invalid":      "用户身份标识缺失",
		"error.user_id_type_invalid": "用户身份标识类型错误",
		"error.email_invalid":        "邮箱格式不正确",
		"error.email_exists":         "邮箱已被使用",

		"error.settings_fetch_failed": "查询系统设置失败",
		"error.settings_save_failed":  "保存系统设置失败",
		"error.config_fetch_failed":   "查询配置失败",

		"error.affiliate_fetch_failed":   "查询推广档案失败",
		"error.affiliate_not_found":      "推广档案不存在",
		"error.affiliate_already_opened": "推广档案已开通",
		"error.affiliate_disabled":       "推广档案已停用",
		"error.earnings_invalid":         "收益金额不合法",

		"error.tier_fetch_failed": "查询等级失败",
		"error.tier_not_found":    "等级不存在",
		"error.tier_name_exists":  "等级名称已存在",
		"error.tier_level_exists": "等级序号已存在",
		"error.tier_in_use":       "该等级下存在生效中的归属，无法删除",
		"error.tier_inactive":     "等级未启用",

		"error.payment_method_fetch_failed": "查询支付方式失败",
		"error.payment_method_not_found":    "支付方式不存在",
		"error.payment_method_code_exists":  "支付方式编码已存在",

		"error.payout_fetch_failed":      "查询提现失败",
		"error.payout_not_found":         "提现记录不存在",
		"error.payout_status_invalid":    "当前状态不允许该操作",
		"error.payout_amount_invalid":    "提现金额不合法",
		"error.payout_validation_failed": "提现校验未通过",

		"error.dashboard_fetch_failed": "查询看板数据失败",
	},
	LocaleEN: {
		"error.bad_request":  "Invalid request parameters",
		"error.unauthorized": "Not signed in or session expired",
		"error.forbidden":    "You do not have permission to perform this action",
		"error.save_failed":  "Save failed, please try again later",

		"error.admin_login_invalid":         "Incorrect username or password",
		"error.login_failed":                "Login failed, please try again later",
		"error.login_too_many":              "Too many login attempts, please try again later",
		"error.password_old_invalid":        "Current password is incorrect",
		"error.password_weak":               "Password is too weak",
		"error.password_min_length":         "Password must be at least %d characters",
		"error.password_require_upper":      "Password must contain an uppercase letter",
		"error.password_require_lower":      "Password must contain a lowercase letter",
		"error.password_require_number":     "Password must contain a digit",
		"error.password_require_special":    "Password must contain a special character",
		"error.jwt_secret_missing":          "Server auth configuration missing",
		"error.token_invalid":               "Invalid credentials",
		"error.token_revoked":               "Session revoked, please sign in again",
		"error.auth_header_missing":         "Missing authorization header",
		"error.auth_header_invalid":         "Malformed authorization header",
		"error.rate_limited":                "Too many requests, please try again later",
		"error.rate_limit_unavailable":      "Rate limiter temporarily unavailable",
		"error.admin_id_invalid":            "Missing admin identity",
		"error.admin_id_type_invalid":       "Invalid admin identity type",
		"error.admin_username_invalid":      "Invalid admin username",
		"error.admin_username_exists":       "Admin username already exists",
		"error.admin_create_failed":         "Failed to create admin",
		"error.admin_update_failed":         "Failed to update admin",
		"error.admin_delete_failed":         "Failed to delete admin",
		"error.admin_delete_self_forbidden": "You cannot delete the currently signed-in admin",
		"error.admin_delete_last_forbidden": "At least one admin account must remain",
		"error.admin_delete_protected":      "This admin is protected and cannot be deleted",

		"error.user_fetch_failed":    "Failed to fetch users",
		"error.user_update_failed":   "Failed to update user",
		"error.user_not_found":       "User not found",
		"error.user_disabled":        "User is disabled",
		"error.user_id_invalid":      "Missing user identity",
		"error.user_id_type_invalid": "Invalid user identity type",
		"error.email_invalid":        "Invalid email address",
		"error.email_exists":         "Email is already in use",

		"error.settings_fetch_failed": "Failed to fetch settings",
		"error.settings_save_failed":  "Failed to save settings",
		"error.config_fetch_failed":   "Failed to fetch configuration",

		"error.affiliate_fetch_failed":   "Failed to fetch affiliate profiles",
		"error.affiliate_not_found":      "Affiliate profile not found",
		"error.affiliate_already_opened": "Affiliate profile already opened",
		"error.affiliate_disabled":       "Affiliate profile is disabled",
		"error.earnings_invalid":         "Invalid earnings amount",

		"error.tier_fetch_failed": "Failed to fetch tiers",
		"error.tier_not_found":    "Tier not found",
		"error.tier_name_exists":  "Tier name already exists",
		"error.tier_level_exists": "Tier level already exists",
		"error.tier_in_use":       "Tier has active assignments and cannot be deleted",
		"error.tier_inactive":     "Tier is not active",

		"error.payment_method_fetch_failed": "Failed to fetch payment methods",
		"error.payment_method_not_found":    "Payment method not found",
		"error.payment_method_code_exists":  "Payment method code already exists",

		"error.payout_fetch_failed":      "Failed to fetch payouts",
		"error.payout_not_found":         "Payout not found",
		"error.payout_status_invalid":    "Operation not allowed in the current status",
		"error.payout_amount_invalid":    "Invalid payout amount",
		"error.payout_validation_failed": "Payout validation failed",

		"error.dashboard_fetch_failed": "Failed to fetch dashboard data",
	},
}
