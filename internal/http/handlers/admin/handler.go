package admin

import (
	"time"

	"github.com/imobiliare-next/internal/provider"
)

// Handler 后台接口：套餐与折扣维护、支付流水、手动扫描、权限
type Handler struct {
	*provider.Container
	now func() time.Time
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c, now: time.Now}
}
