package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"unity-within-go/internal/middleware"
	"unity-within-go/internal/model"
	"unity-within-go/internal/service"
)

// BuddieHandler 负责陪伴对话接口。
type BuddieHandler struct {
	buddieService service.BuddieService
}

// NewBuddieHandler 创建一个新的 BuddieHandler。
func NewBuddieHandler(buddieService service.BuddieService) *BuddieHandler {
	return &BuddieHandler{buddieService: buddieService}
}

type buddieRespondRequest struct {
	Message   string                `json:"message"`
	Mood      string                `json:"mood"`
	Note      string                `json:"note"`
	Intensity int                   `json:"intensity"`
	History   []model.BuddieMessage `json:"history"`
}

// Respond 生成一条陪伴回复。本接口永远返回成功，
// 生成失败时由服务层提供兜底文案。
func (h *BuddieHandler) Respond(c *gin.Context) {
	var req buddieRespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reply := h.buddieService.Respond(c.Request.Context(), service.RespondInput{
		UserID:    middleware.CurrentUserID(c),
		Message:   req.Message,
		Mood:      req.Mood,
		Note:      req.Note,
		Intensity: req.Intensity,
		History:   req.History,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": reply})
}
