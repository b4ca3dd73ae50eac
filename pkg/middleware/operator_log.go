package middleware

import (
	"net"
	"time"

	"Lifeline/pkg/constant"
	"Lifeline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OperationLog 记录用户操作日志
type OperationLog struct {
	ID              int64     `gorm:"primaryKey;autoIncrement;not null" json:"id"`
	UserID          uint      `gorm:"index" json:"user_id"`             // 操作的用户 ID，未登录为 0
	Action          string    `gorm:"not null" json:"action"`           // 操作类型（POST、GET、PUT、DELETE）
	Target          string    `gorm:"not null" json:"target"`           // 操作目标（API 路径）
	IPAddress       string    `gorm:"not null" json:"ip_address"`       // 用户 IP 地址
	UserAgent       string    `json:"user_agent"`                       // 用户的浏览器信息
	Referer         string    `json:"referer"`                          // 请求来源页面
	Device          string    `json:"device"`                           // 用户设备（手机、桌面等）
	Browser         string    `json:"browser"`                          // 浏览器信息（如 Chrome, Firefox 等）
	OperatingSystem string    `json:"operating_system"`                 // 操作系统（如 Windows, MacOS 等）
	Location        string    `json:"location"`                         // 用户的地理位置
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"` // 操作时间
}

// OperationLogMiddleware 记录操作日志，写库失败不阻断请求
func OperationLogMiddleware(geoDBPath string) gin.HandlerFunc {
	geo := openGeoDB(geoDBPath)
	return func(c *gin.Context) {
		c.Next()

		db, ok := c.MustGet(constant.DbField).(*gorm.DB)
		if !ok {
			return
		}

		var userID uint
		if v, exists := c.Get(constant.UserIDField); exists {
			if id, ok := v.(uint); ok {
				userID = id
			}
		}

		ipAddress := c.ClientIP()
		ua := user_agent.New(c.GetHeader("User-Agent"))
		browser, version := ua.Browser()

		entry := OperationLog{
			UserID:          userID,
			Action:          c.Request.Method,
			Target:          c.Request.URL.Path,
			IPAddress:       ipAddress,
			UserAgent:       c.GetHeader("User-Agent"),
			Referer:         c.GetHeader("Referer"),
			Device:          ua.Platform(),
			Browser:         browser + version,
			OperatingSystem: ua.OS(),
			Location:        lookupCity(geo, ipAddress),
			CreatedAt:       time.Now(),
		}
		if err := db.Create(&entry).Error; err != nil {
			logger.Warn("记录操作日志失败", zap.Error(err))
		}
	}
}

// openGeoDB 打开 GeoIP 库，库文件缺失时返回 nil 并降级为空位置
func openGeoDB(path string) *geoip2.Reader {
	if path == "" {
		return nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		logger.Warn("GeoIP 库不可用，地理位置将留空", zap.String("path", path), zap.Error(err))
		return nil
	}
	return reader
}

func lookupCity(geo *geoip2.Reader, address string) string {
	if geo == nil {
		return ""
	}
	ip := net.ParseIP(address)
	if ip == nil {
		return ""
	}
	record, err := geo.City(ip)
	if err != nil {
		return ""
	}
	return record.City.Names["en"]
}
