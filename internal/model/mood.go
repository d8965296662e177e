package model

import "time"

// UserMood 记录一次心情打卡。Intensity 取值 1-10。
type UserMood struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Mood      string    `gorm:"size:50;not null" json:"mood"`
	Intensity int       `gorm:"default:5" json:"intensity"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (UserMood) TableName() string {
	return "user_moods"
}

// JournalEntry 是一篇日记，可以关联某次心情打卡。
type JournalEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	MoodID    *uint     `json:"moodId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}

// TinyWin 是用户记录的一个小胜利。
type TinyWin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (TinyWin) TableName() string {
	return "tiny_wins"
}
