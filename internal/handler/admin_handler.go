package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"unity-within-go/internal/model"
	"unity-within-go/internal/service"
)

// AdminHandler 负责管理面接口，全部路由都要求管理员身份。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// Stats 返回平台总览数据。
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// ListUsers 分页返回用户列表。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	offset, limit := pagination(c, 20)
	users, total, err := h.adminService.ListUsers(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "total": total})
}

// ListModerationLogs 分页返回审核日志，可按标记类型过滤。
func (h *AdminHandler) ListModerationLogs(c *gin.Context) {
	offset, limit := pagination(c, 20)
	logs, total, err := h.adminService.ListModerationLogs(c.Query("flagType"), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch moderation logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": logs, "total": total})
}

// SearchModerationEvents 在分析索引中全文检索审核事件。
func (h *AdminHandler) SearchModerationEvents(c *gin.Context) {
	offset, limit := pagination(c, 20)
	events, total, err := h.adminService.SearchModerationEvents(
		c.Request.Context(), c.Query("q"), c.Query("flagType"), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search moderation events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events, "total": total})
}

// ListMessages 分页返回最新消息，供人工复核。
func (h *AdminHandler) ListMessages(c *gin.Context) {
	offset, limit := pagination(c, 20)
	messages, total, err := h.adminService.ListMessages(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages, "total": total})
}

// DeleteMessage 删除一条消息。
func (h *AdminHandler) DeleteMessage(c *gin.Context) {
	msgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message id"})
		return
	}
	if err := h.adminService.DeleteMessage(uint(msgID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListReports 分页返回举报记录。
func (h *AdminHandler) ListReports(c *gin.Context) {
	offset, limit := pagination(c, 20)
	reports, total, err := h.adminService.ListReports(offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": reports, "total": total})
}

type createRoomRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// CreateRoom 创建一个新聊天室。
func (h *AdminHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing room name"})
		return
	}
	room := &model.ChatRoom{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	}
	if room.Type == "" {
		room.Type = "public"
	}
	if err := h.adminService.CreateRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": room})
}

// DeleteRoom 删除一个聊天室。
func (h *AdminHandler) DeleteRoom(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return
	}
	if err := h.adminService.DeleteRoom(uint(roomID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UserAbuseCount 返回某用户当前窗口内的违规次数。
func (h *AdminHandler) UserAbuseCount(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	count, err := h.adminService.AbuseCount(c.Request.Context(), uint(userID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch abuse count"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}
