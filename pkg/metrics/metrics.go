package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 指标管理器
type Metrics struct {
	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 告警域指标
	alertsCreatedTotal   *prometheus.CounterVec
	dispatchCyclesTotal  *prometheus.CounterVec
	dispatchDuration     *prometheus.HistogramVec
	channelOutcomesTotal *prometheus.CounterVec
	logStoreEntriesGauge prometheus.Gauge

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	// 系统指标
	systemMemoryUsage *prometheus.GaugeVec
	systemCPUUsage    *prometheus.GaugeVec
	systemGoroutines  *prometheus.GaugeVec
}

// NewMetrics 创建指标管理器
func NewMetrics() *Metrics {
	m := &Metrics{
		// HTTP请求指标
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status", "handler"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "handler"},
		),

		httpRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		httpResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path", "status"},
		),

		// 告警域指标
		alertsCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_created_total",
				Help: "Total number of alerts raised",
			},
			[]string{"category"},
		),

		dispatchCyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_cycles_total",
				Help: "Total number of completed dispatch cycles",
			},
			[]string{"category", "result"},
		),

		dispatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_duration_seconds",
				Help:    "Dispatch cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"category"},
		),

		channelOutcomesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channel_outcomes_total",
				Help: "Per-channel delivery outcomes",
			},
			[]string{"channel", "outcome"},
		),

		logStoreEntriesGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "logstore_entries",
				Help: "Current number of entries in the local log store",
			},
		),

		// 缓存指标
		cacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type", "operation"},
		),

		cacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type", "operation"},
		),

		// 系统指标
		systemMemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "system_memory_usage_bytes",
				Help: "System memory usage in bytes",
			},
			[]string{"type"},
		),

		systemCPUUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "system_cpu_usage_percent",
				Help: "System CPU usage percentage",
			},
			[]string{"core"},
		),

		systemGoroutines: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "system_goroutines",
				Help: "Number of goroutines",
			},
			[]string{},
		),
	}

	return m
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Metrics) RecordHTTPRequest(method, path, status, handler string, duration time.Duration, requestSize, responseSize int64) {
	m.httpRequestsTotal.WithLabelValues(method, path, status, handler).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, handler).Observe(duration.Seconds())
	m.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	m.httpResponseSize.WithLabelValues(method, path, status).Observe(float64(responseSize))
}

// RecordAlertCreated 记录告警创建
func (m *Metrics) RecordAlertCreated(category string) {
	m.alertsCreatedTotal.WithLabelValues(category).Inc()
}

// RecordDispatch 记录一次派发周期
func (m *Metrics) RecordDispatch(category string, overallSuccess bool, duration time.Duration) {
	result := "partial"
	if overallSuccess {
		result = "success"
	}
	m.dispatchCyclesTotal.WithLabelValues(category, result).Inc()
	m.dispatchDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordChannelOutcome 记录单通道投递结果
func (m *Metrics) RecordChannelOutcome(channel string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.channelOutcomesTotal.WithLabelValues(channel, outcome).Inc()
}

// SetLogStoreSize 设置日志仓库条目数
func (m *Metrics) SetLogStoreSize(n int) {
	m.logStoreEntriesGauge.Set(float64(n))
}

// RecordCacheHit 记录缓存命中
func (m *Metrics) RecordCacheHit(cacheType, operation string) {
	m.cacheHitsTotal.WithLabelValues(cacheType, operation).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *Metrics) RecordCacheMiss(cacheType, operation string) {
	m.cacheMissesTotal.WithLabelValues(cacheType, operation).Inc()
}

// SetSystemMemoryUsage 设置系统内存使用量
func (m *Metrics) SetSystemMemoryUsage(memoryType string, bytes int64) {
	m.systemMemoryUsage.WithLabelValues(memoryType).Set(float64(bytes))
}

// SetSystemCPUUsage 设置系统CPU使用率
func (m *Metrics) SetSystemCPUUsage(core string, percentage float64) {
	m.systemCPUUsage.WithLabelValues(core).Set(percentage)
}

// SetSystemGoroutines 设置goroutine数量
func (m *Metrics) SetSystemGoroutines(count int) {
	m.systemGoroutines.WithLabelValues().Set(float64(count))
}
