package search

import "time"

type Config struct {
	IndexPath    string
	QueryTimeout time.Duration
	BatchSize    int
}

// AlertDoc 入索引的告警文档
type AlertDoc struct {
	ID        string    `json:"id"`
	UserID    float64   `json:"user_id"` // bleve 数值字段统一为 float64
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Type 供 bleve 的 TypeField 路由文档映射
func (AlertDoc) Type() string { return "alert" }

type Hit struct {
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Fields    map[string]any      `json:"fields"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

type SearchResult struct {
	Total uint64        `json:"total"`
	Took  time.Duration `json:"took"`
	Hits  []Hit         `json:"hits"`
}
