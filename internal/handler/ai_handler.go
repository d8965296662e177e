package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"unity-within-go/internal/middleware"
	"unity-within-go/internal/service"
)

// AIHandler 负责各类生成式内容接口。
type AIHandler struct {
	insightService service.InsightService
}

// NewAIHandler 创建一个新的 AIHandler。
func NewAIHandler(insightService service.InsightService) *AIHandler {
	return &AIHandler{insightService: insightService}
}

// Affirmation 生成每日肯定语。
func (h *AIHandler) Affirmation(c *gin.Context) {
	var req struct {
		Mood string `json:"mood"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	text := h.insightService.Affirmation(c.Request.Context(), req.Mood)
	c.JSON(http.StatusOK, gin.H{"success": true, "text": text})
}

// Reframe 生成焦虑想法的温和重构。
func (h *AIHandler) Reframe(c *gin.Context) {
	var req struct {
		AnxiousThought string `json:"anxiousThought" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing anxiousThought"})
		return
	}
	text := h.insightService.Reframe(c.Request.Context(), req.AnxiousThought)
	c.JSON(http.StatusOK, gin.H{"success": true, "text": text})
}

// ValuesAffirmation 基于价值观生成引导语。
func (h *AIHandler) ValuesAffirmation(c *gin.Context) {
	var req struct {
		Values []string `json:"values" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing values"})
		return
	}
	text := h.insightService.ValuesAffirmation(c.Request.Context(), req.Values)
	c.JSON(http.StatusOK, gin.H{"success": true, "text": text})
}

// Educational 生成主题深度指南。
func (h *AIHandler) Educational(c *gin.Context) {
	var req struct {
		TopicTitle string `json:"topicTitle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.TopicTitle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing topicTitle"})
		return
	}
	guide := h.insightService.Educational(c.Request.Context(), req.TopicTitle)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"title":     guide.Title,
		"synthesis": guide.Synthesis,
		"sources":   guide.Sources,
	})
}

// Insights 基于近 14 天数据生成个性化洞察。
func (h *AIHandler) Insights(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId"})
		return
	}
	insights := h.insightService.Insights(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"success": true, "insights": insights})
}
