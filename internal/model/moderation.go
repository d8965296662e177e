package model

import "time"

// 审核标记类型。
const (
	FlagUnsafe = "UNSAFE"
	FlagCrisis = "CRISIS"
)

// ModerationLog 记录一条被审核拒绝的消息，只写一次，永不修改。
// 本服务只负责追加与读取，删除属于管理面，不在这里实现。
type ModerationLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Reason    string    `gorm:"size:50;not null" json:"reason"`
	FlagType  string    `gorm:"size:10;not null" json:"flagType"` // UNSAFE / CRISIS
	IPAddress string    `gorm:"size:45" json:"ipAddress"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (ModerationLog) TableName() string {
	return "moderation_logs"
}
