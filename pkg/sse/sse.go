// Package sse 面向告警事件流的 Server-Sent Events 推送。
// 客户端按用户 ID 订阅，收到 alert_created / alert_dispatched /
// alert_resolved 等命名事件。
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Client 一条活跃的事件流连接
type Client struct {
	id     string
	groups map[string]bool
	ch     chan string
	done   chan struct{}
}

// Hub 管理全部事件流连接；group 用于订阅某类告警
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	groups   map[string]map[string]bool // group -> clientID set
	interval time.Duration
	retryMs  int
}

// NewHub 构造事件流中心，interval 为心跳间隔
func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{clients: make(map[string]*Client), groups: make(map[string]map[string]bool), interval: interval, retryMs: 5000}
}

func (h *Hub) AddClient(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Client{id: id, groups: make(map[string]bool), ch: make(chan string, 64), done: make(chan struct{})}
	h.clients[id] = c
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		close(c.done)
		for g := range c.groups {
			delete(h.groups[g], id)
		}
		delete(h.clients, id)
	}
	h.mu.Unlock()
}

// Join 让连接加入组，如按告警类别订阅
func (h *Hub) Join(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	c.groups[group] = true
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]bool)
	}
	h.groups[group][id] = true
}

func (h *Hub) Leave(id, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(c.groups, group)
	if h.groups[group] != nil {
		delete(h.groups[group], id)
	}
}

// Broadcast 向全部连接发送未命名事件
func (h *Hub) Broadcast(data string) { h.sendAll(formatEvent("", data)) }
func (h *Hub) BroadcastJSON(v interface{}) {
	b, _ := json.Marshal(v)
	h.sendAll(formatEvent("", string(b)))
}

// SendTo 向单个用户发送；队列满时丢弃，慢客户端不阻塞派发路径
func (h *Hub) SendTo(id, data string) { h.sendTo(id, formatEvent("", data)) }

func (h *Hub) SendToJSON(id string, v interface{}) { b, _ := json.Marshal(v); h.SendTo(id, string(b)) }

// SendEventTo 向单个用户发送命名事件（SSE event: 字段）
func (h *Hub) SendEventTo(id, event string, v interface{}) {
	b, _ := json.Marshal(v)
	h.sendTo(id, formatEvent(event, string(b)))
}

func (h *Hub) sendTo(id, msg string) {
	h.mu.RLock()
	if c := h.clients[id]; c != nil {
		select {
		case c.ch <- msg:
		default:
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) SendToGroup(group, data string) {
	h.mu.RLock()
	ids := h.groups[group]
	for id := range ids {
		if c := h.clients[id]; c != nil {
			select {
			case c.ch <- formatEvent("", data):
			default:
			}
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) sendAll(msg string) {
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.ch <- msg:
		default:
		}
	}
	h.mu.RUnlock()
}

func formatEvent(event, data string) string {
	if event == "" {
		return fmt.Sprintf("data: %s\n\n", data)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}

// Serve 接管连接直至客户端断开；?group= 参数用于订阅组
func (h *Hub) Serve(c *gin.Context, clientID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)

	client := h.AddClient(clientID)
	defer h.RemoveClient(clientID)
	if gid := c.Query("group"); gid != "" {
		h.Join(clientID, gid)
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	ping := time.NewTicker(h.interval)
	defer ping.Stop()
	c.Stream(func(w io.Writer) bool { return true })

	lastEventID := c.GetHeader("Last-Event-ID")
	_ = lastEventID // 留接口：可接入历史缓存重放

	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-client.ch:
			c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}
