package admin

import "github.com/partnerdesk/internal/provider"

// Handler 后台运营 API 的处理器入口，聚合依赖容器。
// 等级、提现、支付方式与权限管理接口都挂在这里。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
