package metrics

import (
	"sync"
)

// 全局监控器由 main 注册一次；派发路径等热点代码经
// GetGlobalMonitor 上报指标，取不到时静默跳过。
var (
	globalMonitor *Monitor
	mu            sync.RWMutex
)

// SetGlobalMonitor 注册全局监控器实例
func SetGlobalMonitor(monitor *Monitor) {
	mu.Lock()
	defer mu.Unlock()
	globalMonitor = monitor
}

// GetGlobalMonitor 获取全局监控器实例，未注册时返回 nil
func GetGlobalMonitor() *Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return globalMonitor
}

// IsGlobalMonitorEnabled 检查全局监控器是否启用
func IsGlobalMonitorEnabled() bool {
	monitor := GetGlobalMonitor()
	return monitor != nil && monitor.IsEnabled()
}
