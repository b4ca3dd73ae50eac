package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitorMiddleware 监控中间件
func MonitorMiddleware(monitor *Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 处理请求
		c.Next()

		// 计算请求耗时
		duration := time.Since(start)

		// 记录HTTP请求指标
		requestSize := c.Request.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}
		responseSize := int64(c.Writer.Size())

		monitor.RecordHTTPRequest(
			c.Request.Method,
			c.Request.URL.Path,
			strconv.Itoa(c.Writer.Status()),
			c.HandlerName(),
			duration,
			requestSize,
			responseSize,
		)
	}
}
