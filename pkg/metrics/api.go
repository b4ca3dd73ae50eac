package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitorAPI 监控API处理器
type MonitorAPI struct {
	monitor *Monitor
}

// NewMonitorAPI 创建监控API处理器
func NewMonitorAPI(monitor *Monitor) *MonitorAPI {
	return &MonitorAPI{
		monitor: monitor,
	}
}

// RegisterRoutes 注册监控API路由
func (api *MonitorAPI) RegisterRoutes(r *gin.RouterGroup) {
	// 系统概览
	r.GET("/overview", api.GetOverview)

	// 系统监控
	r.GET("/system", api.GetSystemStats)
	r.GET("/system/latest", api.GetLatestSystemStats)

	// 指标数据
	r.GET("/metrics", api.GetMetrics)
	r.GET("/metrics/prometheus", api.GetPrometheusMetrics)
}

// GetOverview 获取系统概览
func (api *MonitorAPI) GetOverview(c *gin.Context) {
	summary := api.monitor.GetSystemSummary()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// GetSystemStats 获取系统统计
func (api *MonitorAPI) GetSystemStats(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	stats := api.monitor.GetSystemStats(limit)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetLatestSystemStats 获取最新系统统计
func (api *MonitorAPI) GetLatestSystemStats(c *gin.Context) {
	stats := api.monitor.GetLatestSystemStats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetMetrics 获取指标数据
func (api *MonitorAPI) GetMetrics(c *gin.Context) {
	if api.monitor.GetMetrics() == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": map[string]interface{}{
			"timestamp": time.Now(),
			"message":   "Metrics collection is enabled",
		},
	})
}

// GetPrometheusMetrics 获取Prometheus格式的指标
func (api *MonitorAPI) GetPrometheusMetrics(c *gin.Context) {
	// Prometheus指标由promhttp在/metric暴露，这里仅作兼容说明
	c.Header("Content-Type", "text/plain")
	c.String(http.StatusOK, "# Prometheus metrics are exposed at the /metric endpoint\n# This endpoint is for compatibility only")
}
