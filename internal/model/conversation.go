package model

import "time"

// Buddie 对话历史中的角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// BuddieMessage 是陪伴对话历史里的一条消息，整段历史以 JSON
// 形式存放在 Redis 中，按用户维度维护。
type BuddieMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
