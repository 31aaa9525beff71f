package admin

import (
	"time"

	handlershared "github.com/imobiliare-next/internal/http/handlers/shared"
	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var packageErrorRules = []handlershared.MappedHandlerError{
	{Target: service.ErrPackageNotFound, Code: response.CodeNotFound, Key: "error.package_not_found"},
	{Target: service.ErrPromotionPackageNotFound, Code: response.CodeNotFound, Key: "error.promotion_not_found"},
	{Target: service.ErrPackageInvalid, Code: response.CodeBadRequest, Key: "error.package_invalid"},
	{Target: service.ErrPackageInUse, Code: response.CodeConflict, Key: "error.package_in_use"},
}

var discountErrorRules = []handlershared.MappedHandlerError{
	{Target: service.ErrDiscountNotFound, Code: response.CodeNotFound, Key: "error.discount_not_found"},
	{Target: service.ErrDiscountInvalid, Code: response.CodeBadRequest, Key: "error.discount_invalid"},
	{Target: service.ErrDiscountCodeExists, Code: response.CodeConflict, Key: "error.discount_code_exists"},
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}

func respondPackageError(c *gin.Context, err error, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, packageErrorRules, response.CodeInternal, fallbackKey)
}

func respondDiscountError(c *gin.Context, err error, fallbackKey string) {
	handlershared.RespondWithMappedError(c, err, discountErrorRules, response.CodeInternal, fallbackKey)
}

// parseTime 解析 RFC3339 时间
func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}

// parseTimeNullable 解析可空 RFC3339 时间
func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
