package admin

import (
	"strconv"
	"strings"

	"github.com/partnerdesk/internal/http/response"
	"github.com/partnerdesk/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuthzAuditLogs 权限审计日志列表，支持按操作人、动作与时间范围过滤
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	operatorAdminID, ok := parseUintQuery(c, "operator_admin_id")
	if !ok {
		return
	}
	targetAdminID, ok := parseUintQuery(c, "target_admin_id")
	if !ok {
		return
	}
	createdFrom, err := parseTimeNullable(trimQuery(c, "created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(trimQuery(c, "created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	items, total, err := h.AuthzAuditService.ListForAdmin(repository.AuthzAuditLogListFilter{
		Page:            page,
		PageSize:        pageSize,
		OperatorAdminID: operatorAdminID,
		TargetAdminID:   targetAdminID,
		Action:          trimQuery(c, "action"),
		Role:            trimQuery(c, "role"),
		Object:          trimQuery(c, "object"),
		Method:          trimQuery(c, "method"),
		CreatedFrom:     createdFrom,
		CreatedTo:       createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}

	response.SuccessWithPage(c, items, response.BuildPagination(page, pageSize, total))
}

// parseUintQuery 解析可选的无符号整型查询参数；解析失败时已写入错误响应
func parseUintQuery(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return 0, false
	}
	return uint(value), true
}
