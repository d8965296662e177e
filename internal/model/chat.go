package model

import "time"

// ChatRoom 代表一个同伴支持聊天室。
type ChatRoom struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        string    `gorm:"size:20;default:public" json:"type"` // public / private / support
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// ChatMessage 代表一条已通过准入的聊天消息，持久化后不可变。
// RoomID 为 nil 表示全局匿名树洞；UserID 为 nil 表示匿名发送者。
type ChatMessage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      *uint     `gorm:"index" json:"roomId"`
	UserID      *uint     `gorm:"index" json:"userId"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsAnonymous bool      `gorm:"default:true" json:"isAnonymous"`
	ReplyToID   *uint     `json:"replyToId"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Report 代表用户对某条消息的举报，仅引用消息，不拥有它。
type Report struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	MessageID *uint     `json:"messageId"`
	Reason    string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Report) TableName() string {
	return "reports"
}

// ChatBroadcast 是广播给房间成员的消息载体。
// 硬性约束：IsAnonymous 为 true 时 UserName 必须为 nil，
// 无论发送者的真实资料如何。
type ChatBroadcast struct {
	ID          uint      `json:"id"`
	RoomID      *uint     `json:"roomId"`
	UserID      *uint     `json:"userId"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"isAnonymous"`
	ReplyToID   *uint     `json:"replyToId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UserName    *string   `json:"userName"`
}

// ChatRejection 是仅发回给发送者的拒绝通知。
// IsCrisis 为 true 时客户端应展示危机援助资源而非普通的“未发送”。
type ChatRejection struct {
	Reason   string `json:"reason"`
	IsCrisis bool   `json:"isCrisis,omitempty"`
}
