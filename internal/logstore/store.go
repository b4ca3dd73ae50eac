package logstore

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"Lifeline/internal/dispatch"
	"Lifeline/internal/models"
	"Lifeline/pkg/logger"

	"go.uber.org/zap"
)

// DefaultCapacity 日志条目数上限
const DefaultCapacity = 100

// LogEntry 一次完成的派发周期的不可变快照
type LogEntry struct {
	AlertID      string                    `json:"alert_id"`
	OriginatorID uint                      `json:"originator_id"`
	Category     models.AlertCategory      `json:"category"`
	Message      string                    `json:"message"`
	Location     *models.Location          `json:"location,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	FinalStatus  models.AlertStatus        `json:"final_status"`
	Outcomes     []dispatch.ChannelOutcome `json:"outcomes"`
}

// Snapshot 从告警与派发结果构造快照
func Snapshot(alert *models.AlertRecord, outcomes []dispatch.ChannelOutcome) LogEntry {
	return LogEntry{
		AlertID:      alert.ID,
		OriginatorID: alert.UserID,
		Category:     alert.Category,
		Message:      alert.Message,
		Location:     alert.Location,
		CreatedAt:    alert.CreatedAt,
		FinalStatus:  alert.Status,
		Outcomes:     outcomes,
	}
}

// Statistics 按类别与状态的计数
type Statistics struct {
	Total      int                          `json:"total"`
	ByCategory map[models.AlertCategory]int `json:"by_category"`
	ByStatus   map[models.AlertStatus]int   `json:"by_status"`
}

// Store 有界的本地追加日志。entries[0] 最新；超过容量从尾部淘汰最旧。
// 所有变更经单把锁串行化，保证容量与顺序不被并发破坏。
type Store struct {
	mu           sync.Mutex
	entries      []LogEntry
	capacity     int
	snapshotPath string
}

// NewStore 构造日志仓库，capacity <= 0 时取默认容量
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// WithSnapshotFile 开启落盘：每次 Append 追加一行 JSON 到指定文件
func (s *Store) WithSnapshotFile(path string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotPath = path
	return s
}

// Append 头部插入一条快照；落盘失败仅告警并返回 false，绝不中断派发路径
func (s *Store) Append(entry LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]LogEntry{entry}, s.entries...)
	for len(s.entries) > s.capacity {
		s.entries = s.entries[:len(s.entries)-1]
	}

	if s.snapshotPath == "" {
		return true
	}
	if err := appendLine(s.snapshotPath, entry); err != nil {
		logger.Warn("log snapshot not persisted", zap.String("alert_id", entry.AlertID), zap.Error(err))
		return false
	}
	return true
}

func appendLine(path string, entry LogEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(raw, '\n'))
	return err
}

// ReadAll 返回全部快照，最新在前；返回副本，不暴露内部切片
func (s *Store) ReadAll() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// ReadByOriginator 过滤出某个用户的快照
func (s *Store) ReadByOriginator(userID uint) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LogEntry
	for _, e := range s.entries {
		if e.OriginatorID == userID {
			out = append(out, e)
		}
	}
	return out
}

// Remove 删除指定告警的快照；不存在时为无操作，不算错误
func (s *Store) Remove(alertID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.AlertID == alertID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear 清空全部快照
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Len 当前条目数
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats 对当前内容的确定性统计；userID 非 nil 时仅统计该用户
func (s *Store) Stats(userID *uint) Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Statistics{
		ByCategory: make(map[models.AlertCategory]int),
		ByStatus:   make(map[models.AlertStatus]int),
	}
	for _, e := range s.entries {
		if userID != nil && e.OriginatorID != *userID {
			continue
		}
		stats.Total++
		stats.ByCategory[e.Category]++
		stats.ByStatus[e.FinalStatus]++
	}
	return stats
}

// Export 导出全部快照的有序 JSON 序列，供展示层下载
func (s *Store) Export() ([]byte, error) {
	return json.MarshalIndent(s.ReadAll(), "", "  ")
}
