// Package ws 维护 WebSocket 会话注册表与房间广播。
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"unity-within-go/internal/metrics"
	"unity-within-go/pkg/log"
)

// GlobalFeedRoom 是全局匿名树洞的虚拟房间号，不对应任何 chat_rooms 记录。
const GlobalFeedRoom uint = 0

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// Envelope 是下发给客户端的统一消息信封。
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Session 代表一条已建立的 WebSocket 会话。
// 所有写操作都经由 send 通道串行化，避免并发写同一连接。
type Session struct {
	ID     string
	UserID uint
	conn   *websocket.Conn
	send   chan []byte
	closed bool
	mu     sync.Mutex
}

// Send 将一条消息封装后排入会话的发送队列。
// 队列已满说明客户端读取过慢，消息被丢弃。
func (s *Session) Send(msgType string, data interface{}) {
	payload, err := json.Marshal(Envelope{Type: msgType, Data: data})
	if err != nil {
		log.Errorf("序列化下发消息失败: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- payload:
	default:
		log.Warnf("会话 %s 发送队列已满，丢弃消息 type=%s", s.ID, msgType)
	}
}

// writePump 将发送队列中的消息依次写入连接，队列关闭后结束。
func (s *Session) writePump() {
	for payload := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	_ = s.conn.Close()
}

// Hub 是线程安全的会话注册表，按房间维度组织会话以支持定向广播。
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[uint]map[string]*Session
}

// NewHub 创建一个空的 Hub 实例。
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		rooms:    make(map[uint]map[string]*Session),
	}
}

// Register 为一条新连接创建会话并启动写循环。
// 所有会话默认加入全局树洞房间。
func (h *Hub) Register(conn *websocket.Conn, userID uint) *Session {
	session := &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.sessions[session.ID] = session
	h.joinLocked(session, GlobalFeedRoom)
	h.mu.Unlock()

	go session.writePump()
	metrics.WebsocketSessions.Inc()
	log.Infof("WebSocket 会话建立: session=%s user=%d", session.ID, userID)
	return session
}

// Unregister 将会话从所有房间移除并关闭发送队列。
func (h *Hub) Unregister(session *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[session.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, session.ID)
	for roomID, members := range h.rooms {
		if _, ok := members[session.ID]; ok {
			delete(members, session.ID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()

	session.mu.Lock()
	session.closed = true
	close(session.send)
	session.mu.Unlock()

	metrics.WebsocketSessions.Dec()
	log.Infof("WebSocket 会话关闭: session=%s user=%d", session.ID, session.UserID)
}

// JoinRoom 将会话加入指定房间。
func (h *Hub) JoinRoom(session *Session, roomID uint) {
	h.mu.Lock()
	h.joinLocked(session, roomID)
	h.mu.Unlock()
}

func (h *Hub) joinLocked(session *Session, roomID uint) {
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Session)
		h.rooms[roomID] = members
	}
	members[session.ID] = session
}

// LeaveRoom 将会话移出指定房间，全局树洞不可退出。
func (h *Hub) LeaveRoom(session *Session, roomID uint) {
	if roomID == GlobalFeedRoom {
		return
	}
	h.mu.Lock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, session.ID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
}

// BroadcastRoom 向房间内所有会话广播一条消息。
// 单个会话的失败不影响其他会话，失败连接由读循环负责清理。
func (h *Hub) BroadcastRoom(roomID uint, msgType string, data interface{}) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[roomID]))
	for _, s := range h.rooms[roomID] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		s.Send(msgType, data)
	}
}

// SessionCount 返回当前存活的会话数。
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	n := len(h.sessions)
	h.mu.RUnlock()
	return n
}
