package admin

import (
	handlershared "github.com/imobiliare-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.admin_id_invalid", "error.admin_id_type_invalid")
}

func isSuperAdmin(c *gin.Context) bool {
	if value, exists := c.Get("admin_is_super"); exists {
		if flag, ok := value.(bool); ok {
			return flag
		}
	}
	return false
}
