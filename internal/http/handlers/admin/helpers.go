package admin

import (
	"net/url"
	"strconv"
	"strings"

	handlershared "github.com/partnerdesk/internal/http/handlers/shared"
	"github.com/partnerdesk/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 包内薄封装，统一走 shared 的响应与日志实现

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.admin_id_invalid", "error.admin_id_type_invalid")
}

// currentAdminID 读取鉴权中间件写入的操作者 ID，缺失时返回 0（不中断请求）
func currentAdminID(c *gin.Context) uint {
	return handlershared.ContextUint(c, "admin_id")
}

func currentUsername(c *gin.Context) string {
	return handlershared.ContextString(c, "username")
}

func currentRequestID(c *gin.Context) string {
	return handlershared.ContextString(c, "request_id")
}

// parseAdminIDParam 解析路径上的管理员 ID，非法时直接响应 400
func parseAdminIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
		return 0, false
	}
	return uint(id), true
}

// decodeRoleParam 还原路径中可能被转义的角色名
func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
