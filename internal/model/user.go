// Package model 包含了应用的数据模型定义。
package model

import "time"

// User 代表一个平台用户。认证与会话管理由外部系统负责，
// 这里只保留广播、审计与管理面需要的字段。
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:100" json:"name"`
	Email            string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role             string    `gorm:"size:20;default:user" json:"role"`
	EmergencyContact string    `gorm:"size:50" json:"emergencyContact"`
	IsActive         bool      `gorm:"default:true" json:"isActive"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}
