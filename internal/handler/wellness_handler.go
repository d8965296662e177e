package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"unity-within-go/internal/middleware"
	"unity-within-go/internal/model"
	"unity-within-go/internal/service"
)

// WellnessHandler 负责心情打卡、日记与小胜利接口。
type WellnessHandler struct {
	wellnessService service.WellnessService
}

// NewWellnessHandler 创建一个新的 WellnessHandler。
func NewWellnessHandler(wellnessService service.WellnessService) *WellnessHandler {
	return &WellnessHandler{wellnessService: wellnessService}
}

type recordMoodRequest struct {
	Mood      string `json:"mood" binding:"required"`
	Intensity int    `json:"intensity"`
	Note      string `json:"note"`
}

// RecordMood 记录一次心情打卡。
func (h *WellnessHandler) RecordMood(c *gin.Context) {
	var req recordMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing mood"})
		return
	}

	mood := &model.UserMood{
		UserID:    middleware.CurrentUserID(c),
		Mood:      req.Mood,
		Intensity: req.Intensity,
		Note:      req.Note,
	}
	if err := h.wellnessService.RecordMood(mood); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save mood"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mood": mood})
}

// ListMoods 返回当前用户的心情记录。
// 带 range 参数 (day/week/month/year) 时按时间范围查询，否则按条数。
func (h *WellnessHandler) ListMoods(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var moods []model.UserMood
	var err error
	if rangeName := c.Query("range"); rangeName != "" {
		moods, err = h.wellnessService.ListMoodsInRange(userID, rangeName)
	} else {
		var limit int
		_, limit = pagination(c, 30)
		moods, err = h.wellnessService.ListMoods(userID, limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch moods"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "moods": moods})
}

type createJournalRequest struct {
	Content string `json:"content" binding:"required"`
	MoodID  *uint  `json:"moodId"`
}

// CreateJournal 写一篇日记。
func (h *WellnessHandler) CreateJournal(c *gin.Context) {
	var req createJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing content"})
		return
	}

	entry := &model.JournalEntry{
		UserID:  middleware.CurrentUserID(c),
		Content: req.Content,
		MoodID:  req.MoodID,
	}
	if err := h.wellnessService.CreateJournal(entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save journal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "journal": entry})
}

// ListJournals 分页返回当前用户的日记。
func (h *WellnessHandler) ListJournals(c *gin.Context) {
	offset, limit := pagination(c, 20)
	entries, total, err := h.wellnessService.ListJournals(middleware.CurrentUserID(c), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch journals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "journals": entries, "total": total})
}

type recordTinyWinRequest struct {
	Content string `json:"content" binding:"required"`
}

// RecordTinyWin 记录一个小胜利。
func (h *WellnessHandler) RecordTinyWin(c *gin.Context) {
	var req recordTinyWinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing content"})
		return
	}

	win := &model.TinyWin{
		UserID:  middleware.CurrentUserID(c),
		Content: req.Content,
	}
	if err := h.wellnessService.RecordTinyWin(win); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save tiny win"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tinyWin": win})
}

// ListTinyWins 返回当前用户的小胜利记录。
func (h *WellnessHandler) ListTinyWins(c *gin.Context) {
	_, limit := pagination(c, 30)
	wins, err := h.wellnessService.ListTinyWins(middleware.CurrentUserID(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tiny wins"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tinyWins": wins})
}
