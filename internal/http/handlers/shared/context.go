package shared

import (
	"strings"

	"github.com/imobiliare-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 读取鉴权中间件写入的 ID；缺失视为未登录
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	var id uint
	switch v := value.(type) {
	case uint:
		id = v
	case uint64:
		id = uint(v)
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		id = uint(v)
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		id = uint(v)
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
	if id == 0 {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	return id, true
}

// ContextEmail 读取用户邮箱（统一小写）
func ContextEmail(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.GetString("user_email")))
}
