package public

import "github.com/partnerdesk/internal/provider"

// Handler 公开 API 的处理器入口，聚合依赖容器。
// 覆盖匿名追踪上报与只读的等级表、档案查询接口。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
