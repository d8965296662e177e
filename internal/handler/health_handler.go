package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health 返回服务健康状态。
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
