package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialSession 建立一条真实的 WebSocket 连接并注册到 Hub，
// 返回客户端侧连接供断言读取。
func dialSession(t *testing.T, hub *Hub, userID uint) (*websocket.Conn, *Session) {
	t.Helper()

	sessionCh := make(chan *Session, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		sessionCh <- hub.Register(conn, userID)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	session := <-sessionCh
	return client, session
}

func readEnvelope(t *testing.T, client *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)
	var envelope Envelope
	require.NoError(t, json.Unmarshal(payload, &envelope))
	return envelope
}

// TestHub_GlobalFeedByDefault verifies every session joins the global feed on
// registration and receives its broadcasts.
func TestHub_GlobalFeedByDefault(t *testing.T) {
	hub := NewHub()
	client, _ := dialSession(t, hub, 1)

	hub.BroadcastRoom(GlobalFeedRoom, "receive_message", map[string]string{"content": "hello"})

	envelope := readEnvelope(t, client)
	assert.Equal(t, "receive_message", envelope.Type)
}

// TestHub_RoomScopedBroadcast verifies broadcasts reach room members only.
func TestHub_RoomScopedBroadcast(t *testing.T) {
	hub := NewHub()
	member, memberSession := dialSession(t, hub, 1)
	outsider, _ := dialSession(t, hub, 2)

	hub.JoinRoom(memberSession, 42)
	hub.BroadcastRoom(42, "receive_message", map[string]string{"content": "room only"})

	envelope := readEnvelope(t, member)
	assert.Equal(t, "receive_message", envelope.Type)

	// 非房间成员不应收到任何消息
	require.NoError(t, outsider.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := outsider.ReadMessage()
	assert.Error(t, err, "outsider should time out waiting for a room broadcast")
}

// TestHub_LeaveRoom verifies a session stops receiving after leaving a room.
func TestHub_LeaveRoom(t *testing.T) {
	hub := NewHub()
	client, session := dialSession(t, hub, 1)

	hub.JoinRoom(session, 42)
	hub.LeaveRoom(session, 42)
	hub.BroadcastRoom(42, "receive_message", map[string]string{"content": "gone"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)
}

// TestHub_SessionSend verifies a direct send reaches only the target session.
func TestHub_SessionSend(t *testing.T) {
	hub := NewHub()
	client, session := dialSession(t, hub, 1)

	session.Send("message_rejected", map[string]string{"reason": "nope"})

	envelope := readEnvelope(t, client)
	assert.Equal(t, "message_rejected", envelope.Type)
}

// TestHub_UnregisterIdempotent verifies double unregister is safe and count
// tracking stays consistent.
func TestHub_UnregisterIdempotent(t *testing.T) {
	hub := NewHub()
	_, session := dialSession(t, hub, 1)
	assert.Equal(t, 1, hub.SessionCount())

	hub.Unregister(session)
	hub.Unregister(session)
	assert.Zero(t, hub.SessionCount())
}

// TestHub_SendAfterUnregister verifies sends to a closed session are dropped
// without panicking.
func TestHub_SendAfterUnregister(t *testing.T) {
	hub := NewHub()
	_, session := dialSession(t, hub, 1)

	hub.Unregister(session)
	session.Send("receive_message", map[string]string{"content": "late"})
}
