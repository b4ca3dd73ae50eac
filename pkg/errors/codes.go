package errors

// 业务错误码，与 HTTP 状态码对齐
const (
	CodeInvalidParam      = 400 // 参数校验失败
	CodeUnauthorized      = 401 // 未认证
	CodeForbidden         = 403 // 无权访问他人资源
	CodeNotFound          = 404
	CodeInvalidTransition = 409 // 告警状态不允许回退
	CodeInternal          = 500
)

// IsCode 判断错误是否携带指定业务码
func IsCode(err error, code int) bool {
	return GetCode(err) == code
}
