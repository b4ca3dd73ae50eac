package search

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

var ErrClosed = errors.New("search index closed")

// AlertIndex 告警全文索引：message/address 分词检索，
// category/status 关键词过滤，非管理员查询强制按 user_id 过滤。
type AlertIndex struct {
	cfg    Config
	index  bleve.Index
	mu     sync.RWMutex
	closed bool
}

func Open(cfg Config) (*AlertIndex, error) {
	ix := &AlertIndex{cfg: cfg}

	var idx bleve.Index
	if _, err := os.Stat(cfg.IndexPath); err == nil {
		i, e := bleve.Open(cfg.IndexPath)
		if e != nil {
			return nil, e
		}
		idx = i
	} else if os.IsNotExist(err) {
		i, e := bleve.New(cfg.IndexPath, BuildIndexMapping())
		if e != nil {
			return nil, e
		}
		idx = i
	} else {
		return nil, err
	}
	ix.index = idx
	return ix, nil
}

// OpenInMemory 内存索引，测试与小型部署使用
func OpenInMemory(cfg Config) (*AlertIndex, error) {
	idx, err := bleve.NewMemOnly(BuildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &AlertIndex{cfg: cfg, index: idx}, nil
}

func (ix *AlertIndex) guard() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return ErrClosed
	}
	return nil
}

func (ix *AlertIndex) withDeadline(ctx context.Context, fn func(context.Context) error) error {
	d := ix.cfg.QueryTimeout
	if d <= 0 {
		return fn(ctx)
	}
	c, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	ch := make(chan error, 1)
	go func() { ch <- fn(c) }()
	select {
	case <-c.Done():
		return c.Err()
	case err := <-ch:
		return err
	}
}

func (ix *AlertIndex) Index(doc AlertDoc) error {
	if err := ix.guard(); err != nil {
		return err
	}
	return ix.withDeadline(context.Background(), func(context.Context) error {
		return ix.index.Index(doc.ID, map[string]any{
			"type":       doc.Type(),
			"user_id":    doc.UserID,
			"category":   doc.Category,
			"message":    doc.Message,
			"address":    doc.Address,
			"status":     doc.Status,
			"created_at": doc.CreatedAt,
		})
	})
}

func (ix *AlertIndex) IndexBatch(docs []AlertDoc) error {
	if err := ix.guard(); err != nil {
		return err
	}
	bs := ix.cfg.BatchSize
	if bs <= 0 {
		bs = 200
	}
	for i := 0; i < len(docs); i += bs {
		end := i + bs
		if end > len(docs) {
			end = len(docs)
		}
		b := ix.index.NewBatch()
		for _, d := range docs[i:end] {
			if err := b.Index(d.ID, map[string]any{
				"type":       d.Type(),
				"user_id":    d.UserID,
				"category":   d.Category,
				"message":    d.Message,
				"address":    d.Address,
				"status":     d.Status,
				"created_at": d.CreatedAt,
			}); err != nil {
				return err
			}
		}
		if err := ix.index.Batch(b); err != nil {
			return err
		}
	}
	return nil
}

func (ix *AlertIndex) Remove(id string) error {
	if err := ix.guard(); err != nil {
		return err
	}
	return ix.withDeadline(context.Background(), func(context.Context) error {
		return ix.index.Delete(id)
	})
}

// Search 关键字检索。admin 为 false 时结果限定在 userID 自己的告警内。
func (ix *AlertIndex) Search(keyword string, userID uint, admin bool) (SearchResult, error) {
	if err := ix.guard(); err != nil {
		return SearchResult{}, err
	}

	match := bleve.NewMatchQuery(keyword)
	match.SetField("message")
	addr := bleve.NewMatchQuery(keyword)
	addr.SetField("address")
	cat := bleve.NewTermQuery(keyword)
	cat.SetField("category")
	text := bleve.NewDisjunctionQuery(match, addr, cat)

	var q query.Query = text
	if !admin {
		uid := float64(userID)
		owner := bleve.NewNumericRangeInclusiveQuery(&uid, &uid, boolPtr(true), boolPtr(true))
		owner.SetField("user_id")
		q = bleve.NewConjunctionQuery(text, owner)
	}

	sr := bleve.NewSearchRequest(q)
	sr.Size = 50
	sr.Fields = []string{"*"}
	sr.SortBy([]string{"-_score", "-created_at"})
	sr.Highlight = bleve.NewHighlightWithStyle("html")

	start := time.Now()
	res, err := ix.index.Search(sr)
	if err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{Total: res.Total, Took: time.Since(start)}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{
			ID:        h.ID,
			Score:     h.Score,
			Fields:    h.Fields,
			Fragments: h.Fragments,
		})
	}
	return out, nil
}

func (ix *AlertIndex) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true
	return ix.index.Close()
}

func boolPtr(b bool) *bool { return &b }
