package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"unity-within-go/internal/repository"
)

// 上下文键名。
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

// Identity 从 X-User-ID 请求头解析调用方身份并存入上下文。
// 认证由外部网关完成，这里只做透传，缺省视为匿名访客。
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header != "" {
			if id, err := strconv.ParseUint(header, 10, 64); err == nil && id > 0 {
				c.Set(ContextUserID, uint(id))
			}
		}
		c.Next()
	}
}

// RequireIdentity 要求请求携带有效身份，否则拒绝。
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserID); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing user identity"})
			return
		}
		c.Next()
	}
}

// RequireAdmin 校验调用方是管理员，并将完整的用户对象存入上下文。
func RequireAdmin(userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get(ContextUserID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing user identity"})
			return
		}
		userID := value.(uint)

		user, err := userRepo.FindByID(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if user.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUserID 返回上下文中的用户 ID，未登录时返回 0。
func CurrentUserID(c *gin.Context) uint {
	if value, ok := c.Get(ContextUserID); ok {
		return value.(uint)
	}
	return 0
}
