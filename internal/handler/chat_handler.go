// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"unity-within-go/internal/middleware"
	"unity-within-go/internal/model"
	"unity-within-go/internal/service"
	"unity-within-go/internal/ws"
	"unity-within-go/pkg/log"
	"unity-within-go/pkg/token"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责聊天室 REST 接口与 WebSocket 连接。
type ChatHandler struct {
	chatService   service.ChatService
	hub           *ws.Hub
	ticketManager *token.TicketManager
	historyLimit  int
}

// NewChatHandler 创建一个新的 ChatHandler。historyLimit 是历史消息
// 查询的默认页大小。
func NewChatHandler(chatService service.ChatService, hub *ws.Hub, ticketManager *token.TicketManager, historyLimit int) *ChatHandler {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatHandler{
		chatService:   chatService,
		hub:           hub,
		ticketManager: ticketManager,
		historyLimit:  historyLimit,
	}
}

// ListRooms 返回全部聊天室。
func (h *ChatHandler) ListRooms(c *gin.Context) {
	rooms, err := h.chatService.ListRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": rooms})
}

// RoomMessages 分页返回某房间的历史消息，匿名消息不含显示名。
func (h *ChatHandler) RoomMessages(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return
	}
	offset, limit := pagination(c, h.historyLimit)

	id := uint(roomID)
	messages, total, err := h.chatService.RoomHistory(&id, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages, "total": total})
}

// FeedMessages 分页返回全局匿名树洞的消息。
func (h *ChatHandler) FeedMessages(c *gin.Context) {
	offset, limit := pagination(c, h.historyLimit)
	messages, total, err := h.chatService.RoomHistory(nil, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages, "total": total})
}

type postMessageRequest struct {
	RoomID      *uint  `json:"roomId"`
	Content     string `json:"content" binding:"required"`
	IsAnonymous *bool  `json:"isAnonymous"`
	ReplyToID   *uint  `json:"replyToId"`
	UserName    string `json:"userName"`
}

// PostMessage 通过 REST 提交一条消息，走与 WebSocket 相同的准入流程。
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing content"})
		return
	}

	input := service.SubmitMessageInput{
		RoomID:      req.RoomID,
		Content:     req.Content,
		IsAnonymous: true,
		ReplyToID:   req.ReplyToID,
		UserName:    req.UserName,
		IPAddress:   c.ClientIP(),
		Source:      "rest",
	}
	if userID := middleware.CurrentUserID(c); userID > 0 {
		input.UserID = &userID
	}
	if req.IsAnonymous != nil {
		input.IsAnonymous = *req.IsAnonymous
	}

	broadcast, rejection, err := h.chatService.SubmitMessage(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}
	if rejection != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "rejected": rejection})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": broadcast})
}

type createReportRequest struct {
	MessageID *uint  `json:"messageId"`
	Reason    string `json:"reason" binding:"required"`
}

// CreateReport 提交一条举报。
func (h *ChatHandler) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing reason"})
		return
	}

	report := &model.Report{
		UserID:    middleware.CurrentUserID(c),
		MessageID: req.MessageID,
		Reason:    req.Reason,
	}
	if err := h.chatService.CreateReport(report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// WsTicket 为当前用户签发一张短期 WebSocket 连接票据。
func (h *ChatHandler) WsTicket(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	ticket, err := h.ticketManager.Issue(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue ticket"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticket})
}

// wsInbound 是客户端上行消息的统一结构。
type wsInbound struct {
	Type        string `json:"type"` // join_room / leave_room / send_message
	RoomID      *uint  `json:"roomId"`
	Content     string `json:"content"`
	IsAnonymous *bool  `json:"isAnonymous"`
	ReplyToID   *uint  `json:"replyToId"`
	UserName    string `json:"userName"`
}

// Handle 处理一个传入的 WebSocket 连接。
// 票据校验通过后会话注册到 Hub，读循环退出时自动注销。
func (h *ChatHandler) Handle(c *gin.Context) {
	ticket := c.Param("ticket")
	claims, err := h.ticketManager.Verify(ticket)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}

	session := h.hub.Register(conn, claims.UserID)
	defer h.hub.Unregister(session)

	clientIP := c.ClientIP()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var inbound wsInbound
		if err := json.Unmarshal(message, &inbound); err != nil {
			session.Send("error", gin.H{"error": "Invalid message format"})
			continue
		}

		switch inbound.Type {
		case "join_room":
			if inbound.RoomID != nil {
				h.hub.JoinRoom(session, *inbound.RoomID)
			}
		case "leave_room":
			if inbound.RoomID != nil {
				h.hub.LeaveRoom(session, *inbound.RoomID)
			}
		case "send_message":
			h.handleSendMessage(c, session, inbound, clientIP)
		default:
			session.Send("error", gin.H{"error": "Unknown message type"})
		}
	}
}

func (h *ChatHandler) handleSendMessage(c *gin.Context, session *ws.Session, inbound wsInbound, clientIP string) {
	input := service.SubmitMessageInput{
		RoomID:      inbound.RoomID,
		Content:     inbound.Content,
		IsAnonymous: true,
		ReplyToID:   inbound.ReplyToID,
		UserName:    inbound.UserName,
		IPAddress:   clientIP,
		Source:      "websocket",
	}
	if session.UserID > 0 {
		userID := session.UserID
		input.UserID = &userID
	}
	if inbound.IsAnonymous != nil {
		input.IsAnonymous = *inbound.IsAnonymous
	}

	// 广播由准入流程负责，拒绝通知只发回发送者本人
	_, rejection, err := h.chatService.SubmitMessage(c.Request.Context(), input)
	if err != nil {
		log.Errorf("保存 WebSocket 消息失败: %v", err)
		return
	}
	if rejection != nil {
		session.Send("message_rejected", rejection)
	}
}

// pagination 解析 offset/limit 查询参数。
func pagination(c *gin.Context, defaultLimit int) (int, int) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}
	return offset, limit
}
