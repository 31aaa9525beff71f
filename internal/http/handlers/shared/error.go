package shared

import (
	"errors"

	"github.com/imobiliare-next/internal/http/response"
	"github.com/imobiliare-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 按消息目录返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	respondAppError(c, response.WrapError(code, key, Message(key), err))
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	respondAppError(c, response.WrapError(code, "", msg, err))
}

// 4xx 原始错误记 warn，5xx 记 error
func respondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err != nil {
		log := RequestLog(c)
		if appErr.ServerSide() {
			log.Errorw("handler_error", "code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
		} else {
			log.Warnw("handler_rejected", "code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// RespondWithMappedError 命中规则时按规则响应，否则按兜底码响应并记录原始错误。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedHandlerErrors 合并多组映射规则
func ConcatMappedHandlerErrors(groups ...[]MappedHandlerError) []MappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
