package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// newUpgrader 根据配置创建WebSocket升级器
func newUpgrader(cfg *Config) websocket.Upgrader {
	up := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// 在生产环境中应该检查Origin
			return true
		},
		EnableCompression: cfg.EnableCompression,
	}
	return up
}

// HandleWebSocket 处理WebSocket连接
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	upgrader := newUpgrader(hub.config)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("WebSocket升级失败: %v", err)
		return
	}

	if hub.config.EnableCompression {
		conn.EnableWriteCompression(true)
		if hub.config.CompressionLevel != 0 {
			_ = conn.SetCompressionLevel(hub.config.CompressionLevel)
		}
	}

	connection := &Connection{
		ID:       "conn_" + uuid.NewString(),
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, hub.config.MessageBufferSize),
		Hub:      hub,
		LastPing: time.Now(),
		IsAlive:  true,
		Groups:   make(map[string]bool),
		Metadata: make(map[string]interface{}),
	}

	hub.register <- connection

	go connection.writePump()
	go connection.readPump()
}

// readPump 读取消息的协程
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(int64(c.Hub.config.MaxMessageSize))
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.LastPing = time.Now()
		c.mu.Unlock()
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket读取错误: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump 发送消息的协程
func (c *Connection) writePump() {
	var ticker *time.Ticker
	if !c.Hub.config.EnableGlobalPing {
		interval := c.Hub.config.HeartbeatInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		pingEvery := time.Duration(float64(interval) * 0.9)
		ticker = time.NewTicker(pingEvery)
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// 将队列中的其他消息也一起发送
			n := len(c.Send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-func() <-chan time.Time {
			if ticker != nil {
				return ticker.C
			}
			return make(chan time.Time)
		}():
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理客户端上行消息。告警事件只由服务端推送，
// 客户端仅允许心跳、订阅组和上报状态。
func (c *Connection) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		logrus.Errorf("消息解析失败: %v", err)
		return
	}

	msg.From = c.UserID

	switch msg.Type {
	case MessageTypePing:
		c.handlePing()
	case MessageTypeJoinGroup:
		c.handleJoinGroup(msg)
	case MessageTypeLeaveGroup:
		c.handleLeaveGroup(msg)
	case MessageTypeStatus:
		c.handleStatus(msg)
	default:
		logrus.Warnf("拒绝客户端消息类型: %s", msg.Type)
		c.reply(Message{
			Type:      MessageTypeError,
			Data:      ErrInvalidMessageType,
			Timestamp: time.Now().Unix(),
		})
	}
}

// reply 向当前连接回包，缓冲区满时丢弃
func (c *Connection) reply(msg Message) {
	data, _ := json.Marshal(msg)
	select {
	case c.Send <- data:
	default:
		logrus.Warnf("连接 %s 发送缓冲区已满", c.ID)
	}
}

// handlePing 处理ping消息
func (c *Connection) handlePing() {
	c.mu.Lock()
	c.LastPing = time.Now()
	c.mu.Unlock()

	c.reply(Message{
		Type:      MessageTypePong,
		Timestamp: time.Now().Unix(),
	})
}

// handleJoinGroup 处理加入组消息
func (c *Connection) handleJoinGroup(msg Message) {
	groupName, ok := msg.Data.(string)
	if !ok {
		logrus.Warnf("无效的组名: %v", msg.Data)
		return
	}

	c.JoinGroup(groupName)

	c.reply(Message{
		Type:      MessageTypeGroupJoined,
		Data:      groupName,
		Timestamp: time.Now().Unix(),
	})

	logrus.Infof("用户 %s 加入组 %s", c.UserID, groupName)
}

// handleLeaveGroup 处理离开组消息
func (c *Connection) handleLeaveGroup(msg Message) {
	groupName, ok := msg.Data.(string)
	if !ok {
		logrus.Warnf("无效的组名: %v", msg.Data)
		return
	}

	c.LeaveGroup(groupName)

	c.reply(Message{
		Type:      MessageTypeGroupLeft,
		Data:      groupName,
		Timestamp: time.Now().Unix(),
	})

	logrus.Infof("用户 %s 离开组 %s", c.UserID, groupName)
}

// handleStatus 处理状态消息
func (c *Connection) handleStatus(msg Message) {
	if statusData, ok := msg.Data.(map[string]interface{}); ok {
		c.mu.Lock()
		for key, value := range statusData {
			c.Metadata[key] = value
		}
		c.mu.Unlock()
	}

	c.reply(Message{
		Type:      MessageTypeStatusUpdated,
		Timestamp: time.Now().Unix(),
	})
}

// SendMessage 发送消息给当前连接
func (c *Connection) SendMessage(message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return errors.New(ErrSendBufferFull)
	}
}

// JoinGroup 加入组
func (c *Connection) JoinGroup(groupName string) {
	c.mu.Lock()
	c.Groups[groupName] = true
	c.mu.Unlock()

	c.Hub.mu.Lock()
	if c.Hub.groupConnections[groupName] == nil {
		c.Hub.groupConnections[groupName] = make(map[string]bool)
	}
	c.Hub.groupConnections[groupName][c.ID] = true
	c.Hub.mu.Unlock()
}

// LeaveGroup 离开组
func (c *Connection) LeaveGroup(groupName string) {
	c.mu.Lock()
	delete(c.Groups, groupName)
	c.mu.Unlock()

	c.Hub.mu.Lock()
	if c.Hub.groupConnections[groupName] != nil {
		delete(c.Hub.groupConnections[groupName], c.ID)
		if len(c.Hub.groupConnections[groupName]) == 0 {
			delete(c.Hub.groupConnections, groupName)
		}
	}
	c.Hub.mu.Unlock()
}

// IsInGroup 检查是否在指定组中
func (c *Connection) IsInGroup(groupName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Groups[groupName]
}

// GetGroups 获取连接所属的组
func (c *Connection) GetGroups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	groups := make([]string, 0, len(c.Groups))
	for group := range c.Groups {
		groups = append(groups, group)
	}
	return groups
}
