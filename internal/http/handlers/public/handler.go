package public

import "github.com/imobiliare-next/internal/provider"

// Handler 前台接口：房源列表、用户报价与下单、Stripe 回调
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
