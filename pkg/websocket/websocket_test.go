package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	assert.NotNil(t, hub)
	assert.Equal(t, int64(100000), hub.config.MaxConnections)
	assert.Equal(t, 30*time.Second, hub.config.HeartbeatInterval)

	hub.Close()
}

func newTestConnection(hub *Hub, id, userID string) *Connection {
	return &Connection{
		ID:       id,
		UserID:   userID,
		IsAlive:  true,
		Groups:   make(map[string]bool),
		Metadata: make(map[string]interface{}),
		Hub:      hub,
		Send:     make(chan []byte, 8),
	}
}

func TestHubConnectionManagement(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConnection(hub, "conn_alice", "alice")

	hub.register <- conn
	time.Sleep(100 * time.Millisecond) // 等待处理

	assert.Equal(t, int64(1), hub.GetConnectionCount())
	assert.Equal(t, 1, hub.GetUserConnections("alice"))

	hub.unregister <- conn
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int64(0), hub.GetConnectionCount())
	assert.Equal(t, 0, hub.GetUserConnections("alice"))
}

func TestHubGroupManagement(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn1 := newTestConnection(hub, "conn_alice", "alice")
	conn2 := newTestConnection(hub, "conn_bob", "bob")

	hub.register <- conn1
	hub.register <- conn2
	time.Sleep(100 * time.Millisecond)

	// 责任人订阅同一告警组
	conn1.JoinGroup("alert:ALR-1001")
	conn2.JoinGroup("alert:ALR-1001")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 2, hub.GetGroupConnections("alert:ALR-1001"))

	conn1.LeaveGroup("alert:ALR-1001")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, hub.GetGroupConnections("alert:ALR-1001"))

	hub.unregister <- conn1
	hub.unregister <- conn2
	time.Sleep(100 * time.Millisecond)
}

func TestHubMessageBroadcasting(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConnection(hub, "conn_alice", "alice")

	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	message := &Message{
		Type: MessageTypeAlertCreated,
		Data: map[string]interface{}{"alert_id": "ALR-1001", "category": "medical"},
	}

	hub.broadcast <- message
	time.Sleep(100 * time.Millisecond)

	select {
	case data := <-conn.Send:
		var got Message
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, MessageTypeAlertCreated, got.Type)
	default:
		t.Fatal("广播消息未送达连接")
	}

	hub.unregister <- conn
	time.Sleep(100 * time.Millisecond)
}

func TestConnectionMessageHandling(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConnection(hub, "conn_alice", "alice")

	conn.handlePing()
	select {
	case data := <-conn.Send:
		var got Message
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, MessageTypePong, got.Type)
	default:
		t.Fatal("未收到pong回包")
	}

	joinMsg := Message{Type: MessageTypeJoinGroup, Data: "alert:ALR-1001"}
	conn.handleJoinGroup(joinMsg)
	assert.True(t, conn.IsInGroup("alert:ALR-1001"))
	<-conn.Send // group_joined 回包

	leaveMsg := Message{Type: MessageTypeLeaveGroup, Data: "alert:ALR-1001"}
	conn.handleLeaveGroup(leaveMsg)
	assert.False(t, conn.IsInGroup("alert:ALR-1001"))
}

func TestConnectionRejectsClientPush(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConnection(hub, "conn_alice", "alice")

	// 告警事件只能由服务端推送，客户端伪造的推送被拒绝
	raw, err := json.Marshal(Message{Type: MessageTypeAlertDispatched, Data: "ALR-1001"})
	require.NoError(t, err)
	conn.handleMessage(raw)

	select {
	case data := <-conn.Send:
		var got Message
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, MessageTypeError, got.Type)
	default:
		t.Fatal("未收到错误回包")
	}
}

func TestWebSocketHandler(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	handler := NewHandler(hub)

	req := httptest.NewRequest("GET", "/ws/stats", nil)
	w := httptest.NewRecorder()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response, "total_connections")
}

func TestConfigValidation(t *testing.T) {
	validConfig := &Config{
		MaxConnections:     1000,
		HeartbeatInterval:  30 * time.Second,
		ConnectionTimeout:  60 * time.Second,
		MessageBufferSize:  256,
		MessageQueueSize:   1000,
		EnableCompression:  true,
		EnableMessageQueue: true,
		EnableCluster:      false,
	}

	err := ValidateConfig(validConfig)
	assert.NoError(t, err)

	invalidConfig := &Config{
		MaxConnections:     0,
		HeartbeatInterval:  60 * time.Second,
		ConnectionTimeout:  30 * time.Second,
		MessageBufferSize:  0,
		MessageQueueSize:   0,
		EnableCompression:  true,
		EnableMessageQueue: true,
		EnableCluster:      false,
	}

	err = ValidateConfig(invalidConfig)
	assert.Error(t, err)
}

func TestConfigLoading(t *testing.T) {
	config := DefaultConfig()
	assert.NotNil(t, config)
	assert.Equal(t, int64(100000), config.MaxConnections)

	clonedConfig := CloneConfig(config)
	assert.NotNil(t, clonedConfig)
	assert.Equal(t, config.MaxConnections, clonedConfig.MaxConnections)

	config1 := &Config{MaxConnections: 1000}
	config2 := &Config{HeartbeatInterval: 60 * time.Second}

	mergedConfig := MergeConfig(config1, config2)
	assert.Equal(t, int64(1000), mergedConfig.MaxConnections)
	assert.Equal(t, 60*time.Second, mergedConfig.HeartbeatInterval)
}

func TestConnectionGroupOperations(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConnection(hub, "conn_alice", "alice")

	conn.JoinGroup("alert:ALR-1001")
	conn.JoinGroup("alert:ALR-1002")

	groups := conn.GetGroups()
	assert.Len(t, groups, 2)
	assert.Contains(t, groups, "alert:ALR-1001")
	assert.Contains(t, groups, "alert:ALR-1002")

	assert.True(t, conn.IsInGroup("alert:ALR-1001"))
	assert.False(t, conn.IsInGroup("alert:ALR-9999"))

	conn.LeaveGroup("alert:ALR-1001")
	assert.False(t, conn.IsInGroup("alert:ALR-1001"))
	assert.True(t, conn.IsInGroup("alert:ALR-1002"))

	groups = conn.GetGroups()
	assert.Len(t, groups, 1)
	assert.Contains(t, groups, "alert:ALR-1002")
}
