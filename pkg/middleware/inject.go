package middleware

import (
	"Lifeline/pkg/constant"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InjectDB 将数据库句柄注入请求上下文
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constant.DbField, db)
		c.Next()
	}
}
