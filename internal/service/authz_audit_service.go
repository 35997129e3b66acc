package service

import (
	"strings"
	"time"

	"github.com/partnerdesk/internal/models"
	"github.com/partnerdesk/internal/repository"
)

// AuthzAuditRecordInput 权限审计记录输入
type AuthzAuditRecordInput struct {
	OperatorAdminID  uint
	OperatorUsername string
	TargetAdminID    *uint
	TargetUsername   string
	Action           string
	Role             string
	Object           string
	Method           string
	RequestID        string
	Detail           models.JSON
}

// toModel 清洗输入并转换为落库模型；操作人或动作缺失返回 nil
func (in AuthzAuditRecordInput) toModel() *models.AuthzAuditLog {
	action := strings.TrimSpace(in.Action)
	if in.OperatorAdminID == 0 || action == "" {
		return nil
	}
	return &models.AuthzAuditLog{
		OperatorAdminID:  in.OperatorAdminID,
		OperatorUsername: strings.TrimSpace(in.OperatorUsername),
		TargetAdminID:    in.TargetAdminID,
		TargetUsername:   strings.TrimSpace(in.TargetUsername),
		Action:           action,
		Role:             strings.TrimSpace(in.Role),
		Object:           strings.TrimSpace(in.Object),
		Method:           strings.ToUpper(strings.TrimSpace(in.Method)),
		RequestID:        strings.TrimSpace(in.RequestID),
		DetailJSON:       in.Detail,
		CreatedAt:        time.Now(),
	}
}

// AuthzAuditService 权限变更审计服务
type AuthzAuditService struct {
	repo repository.AuthzAuditLogRepository
}

// NewAuthzAuditService 创建权限审计服务
func NewAuthzAuditService(repo repository.AuthzAuditLogRepository) *AuthzAuditService {
	return &AuthzAuditService{repo: repo}
}

// Record 落一条权限变更审计。操作人或动作缺失时静默跳过，
// 审计本身不阻断主流程。
func (s *AuthzAuditService) Record(input AuthzAuditRecordInput) error {
	if s == nil || s.repo == nil {
		return nil
	}
	item := input.toModel()
	if item == nil {
		return nil
	}
	return s.repo.Create(item)
}

// ListForAdmin 管理端查询权限审计日志
func (s *AuthzAuditService) ListForAdmin(filter repository.AuthzAuditLogListFilter) ([]models.AuthzAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AuthzAuditLog{}, 0, nil
	}
	return s.repo.ListAdmin(filter)
}
