package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor 监控管理器
type Monitor struct {
	metrics       *Metrics
	systemMonitor *SystemMonitor
	mu            sync.RWMutex
	config        *MonitorConfig
}

// MonitorConfig 监控配置
type MonitorConfig struct {
	// 指标收集配置
	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics" default:"true"`

	// 系统监控配置
	EnableSystemMonitor bool          `json:"enable_system_monitor" yaml:"enable_system_monitor" default:"true"`
	MaxStats            int           `json:"max_stats" yaml:"max_stats" default:"1000"`
	MonitorInterval     time.Duration `json:"monitor_interval" yaml:"monitor_interval" default:"30s"`
}

// DefaultMonitorConfig 默认监控配置
func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		EnableMetrics:       true,
		EnableSystemMonitor: true,
		MaxStats:            1000,
		MonitorInterval:     30 * time.Second,
	}
}

// NewMonitor 创建监控管理器
func NewMonitor(config *MonitorConfig) *Monitor {
	if config == nil {
		config = DefaultMonitorConfig()
	}

	monitor := &Monitor{
		config: config,
	}

	// 初始化指标收集
	if config.EnableMetrics {
		monitor.metrics = NewMetrics()
	}

	// 初始化系统监控
	if config.EnableSystemMonitor {
		monitor.systemMonitor = NewSystemMonitor(config.MaxStats, config.MonitorInterval)
	}

	return monitor
}

// RegisterMonitorUI 绑定 Prometheus 抓取端点与能力描述
func RegisterMonitorUI(grp *gin.RouterGroup, api *MonitorAPI) {
	grp.GET("/metric", gin.WrapH(promhttp.Handler()))
	grp.GET("/ui.json", func(c *gin.Context) {
		m := api.monitor
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"site": gin.H{
					"name":        "Lifeline Monitor",
					"description": "告警派发与系统可观测性面板",
				},
				"capabilities": gin.H{
					"metrics":        m != nil && m.GetMetrics() != nil,
					"system_monitor": m != nil && m.GetSystemMonitor() != nil,
				},
				"defaults": gin.H{
					"refresh_seconds": 30,
					"limits": gin.H{
						"system": 50,
					},
				},
			},
		})
	})
}

// Start 启动监控
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.systemMonitor != nil {
		m.systemMonitor.Start()
	}
}

// Stop 停止监控
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.systemMonitor != nil {
		m.systemMonitor.Stop()
	}
}

// GetMetrics 获取指标管理器
func (m *Monitor) GetMetrics() *Metrics {
	return m.metrics
}

// GetSystemMonitor 获取系统监控器
func (m *Monitor) GetSystemMonitor() *SystemMonitor {
	return m.systemMonitor
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Monitor) RecordHTTPRequest(method, path, status, handler string, duration time.Duration, requestSize, responseSize int64) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordHTTPRequest(method, path, status, handler, duration, requestSize, responseSize)
}

// RecordAlertCreated 记录告警创建
func (m *Monitor) RecordAlertCreated(category string) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordAlertCreated(category)
}

// RecordDispatch 记录一次派发周期及各通道结果
func (m *Monitor) RecordDispatch(category string, overallSuccess bool, duration time.Duration) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordDispatch(category, overallSuccess, duration)
}

// RecordChannelOutcome 记录单个通道的结果
func (m *Monitor) RecordChannelOutcome(channel string, success bool) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordChannelOutcome(channel, success)
}

// RecordCacheHit 记录缓存命中
func (m *Monitor) RecordCacheHit(cacheType, operation string) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordCacheHit(cacheType, operation)
}

// RecordCacheMiss 记录缓存未命中
func (m *Monitor) RecordCacheMiss(cacheType, operation string) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordCacheMiss(cacheType, operation)
}

// SetLogStoreSize 设置本地日志仓库当前条目数
func (m *Monitor) SetLogStoreSize(n int) {
	if m.metrics == nil {
		return
	}
	m.metrics.SetLogStoreSize(n)
}

// SetCustomMetric 把业务指标附加到系统快照，随 /system 接口一并返回
func (m *Monitor) SetCustomMetric(key string, value interface{}) {
	if m.systemMonitor == nil {
		return
	}
	m.systemMonitor.SetCustomMetric(key, value)
}

// GetSystemSummary 获取系统摘要
func (m *Monitor) GetSystemSummary() map[string]interface{} {
	summary := map[string]interface{}{
		"timestamp": time.Now(),
		"config":    m.config,
	}

	if m.systemMonitor != nil {
		if sysSummary := m.systemMonitor.GetSystemSummary(); sysSummary != nil {
			summary["system"] = sysSummary
		}
	}

	return summary
}

// GetSystemStats 获取系统统计
func (m *Monitor) GetSystemStats(limit int) []*SystemStats {
	if m.systemMonitor == nil {
		return nil
	}
	return m.systemMonitor.GetStatsHistory(limit)
}

// GetLatestSystemStats 获取最新系统统计
func (m *Monitor) GetLatestSystemStats() *SystemStats {
	if m.systemMonitor == nil {
		return nil
	}
	return m.systemMonitor.GetLatestStats()
}

// IsEnabled 检查监控是否启用
func (m *Monitor) IsEnabled() bool {
	return m.config.EnableMetrics || m.config.EnableSystemMonitor
}

// GetConfig 获取监控配置
func (m *Monitor) GetConfig() *MonitorConfig {
	return m.config
}
