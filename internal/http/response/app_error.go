package response

// AppError 接口错误：业务码、消息目录 key 与原始错误
type AppError struct {
	Code    int
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ServerSide 5xx 视为服务端故障
func (e *AppError) ServerSide() bool {
	return e != nil && e.Code >= CodeInternal
}

// WrapError 包装错误，key 可为空
func WrapError(code int, key, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Key:     key,
		Message: message,
		Err:     err,
	}
}
