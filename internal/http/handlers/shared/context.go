package shared

import (
	"strings"

	"github.com/partnerdesk/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
// 键不存在按未登录处理；负数与不支持的类型分别用传入的文案键响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	id, valid, supported := coerceUint(value)
	if !supported {
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
	if !valid {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return id, true
}

// ContextUint 读取上下文中的 uint 值，缺失或非法时返回 0，不写任何响应
func ContextUint(c *gin.Context, key string) uint {
	value, exists := c.Get(key)
	if !exists {
		return 0
	}
	id, valid, supported := coerceUint(value)
	if !valid || !supported {
		return 0
	}
	return id
}

// ContextString 读取上下文中的字符串值并去除首尾空白，缺失时返回空串
func ContextString(c *gin.Context, key string) string {
	value, exists := c.Get(key)
	if !exists {
		return ""
	}
	if str, ok := value.(string); ok {
		return strings.TrimSpace(str)
	}
	return ""
}

// coerceUint 把中间件写入上下文的各种数值表示还原成 uint
func coerceUint(value interface{}) (id uint, valid bool, supported bool) {
	switch v := value.(type) {
	case uint:
		return v, true, true
	case int:
		if v < 0 {
			return 0, false, true
		}
		return uint(v), true, true
	case float64:
		if v < 0 {
			return 0, false, true
		}
		return uint(v), true, true
	default:
		return 0, false, false
	}
}
