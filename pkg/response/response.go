package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// Fail 失败响应，HTTP 状态码仍为 200，业务状态由 success 字段表达
func Fail(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: false, Message: message, Data: data})
}

// FailWithCode 失败响应并指定 HTTP 状态码（鉴权类错误使用）
func FailWithCode(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: false, Message: message, Data: data})
}
