// Package token 提供了用于签发和验证 WebSocket 连接票据 (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TicketManager 负责管理 WebSocket 连接票据的签发和验证。
// 票据是短期 JWT：HTTP 层确认身份后签发，WebSocket 升级时验证，
// 避免在 ws:// URL 中直接暴露长期凭证。
type TicketManager struct {
	secretKey []byte        // 用于签名和验证票据的密钥
	ticketDur time.Duration // 票据有效期
}

// TicketClaims 定义了票据中携带的自定义数据。
// 它嵌入了 jwt.RegisteredClaims 以包含标准的 JWT 声明（如过期时间）。
type TicketClaims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}

// NewTicketManager 创建一个新的 TicketManager 实例。
func NewTicketManager(secret string, expireMinutes int) *TicketManager {
	if expireMinutes <= 0 {
		expireMinutes = 5
	}
	return &TicketManager{
		secretKey: []byte(secret),
		ticketDur: time.Duration(expireMinutes) * time.Minute,
	}
}

// Issue 为指定用户签发一张新的连接票据。
func (m *TicketManager) Issue(userID uint) (string, error) {
	claims := TicketClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ticketDur)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify 验证给定的票据字符串。
// 如果票据有效，返回 TicketClaims；签名不匹配或已过期则返回错误。
func (m *TicketManager) Verify(ticket string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(ticket, &TicketClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 检查签名方法是否为 HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*TicketClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid ticket")
}
