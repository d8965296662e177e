package repository

import (
	"time"

	"gorm.io/gorm"
	"unity-within-go/internal/model"
)

// MoodRepository 定义了心情打卡数据的持久化操作。
type MoodRepository interface {
	Create(mood *model.UserMood) error
	FindByUser(userID uint, limit int) ([]model.UserMood, error)
	// FindRecentByUser 返回用户最近 days 天内的心情记录，按时间升序。
	FindRecentByUser(userID uint, days int) ([]model.UserMood, error)
}

type moodRepository struct {
	db *gorm.DB
}

// NewMoodRepository 创建一个新的 MoodRepository 实例。
func NewMoodRepository(db *gorm.DB) MoodRepository {
	return &moodRepository{db: db}
}

func (r *moodRepository) Create(mood *model.UserMood) error {
	return r.db.Create(mood).Error
}

func (r *moodRepository) FindByUser(userID uint, limit int) ([]model.UserMood, error) {
	var moods []model.UserMood
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&moods).Error
	return moods, err
}

func (r *moodRepository) FindRecentByUser(userID uint, days int) ([]model.UserMood, error) {
	var moods []model.UserMood
	since := time.Now().AddDate(0, 0, -days)
	err := r.db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").Find(&moods).Error
	return moods, err
}

// JournalRepository 定义了日记数据的持久化操作。
type JournalRepository interface {
	Create(entry *model.JournalEntry) error
	FindByUser(userID uint, offset, limit int) ([]model.JournalEntry, int64, error)
	FindRecentByUser(userID uint, days int) ([]model.JournalEntry, error)
}

type journalRepository struct {
	db *gorm.DB
}

// NewJournalRepository 创建一个新的 JournalRepository 实例。
func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Create(entry *model.JournalEntry) error {
	return r.db.Create(entry).Error
}

func (r *journalRepository) FindByUser(userID uint, offset, limit int) ([]model.JournalEntry, int64, error) {
	var entries []model.JournalEntry
	var total int64

	db := r.db.Model(&model.JournalEntry{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *journalRepository) FindRecentByUser(userID uint, days int) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	since := time.Now().AddDate(0, 0, -days)
	err := r.db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").Find(&entries).Error
	return entries, err
}

// TinyWinRepository 定义了小胜利记录的持久化操作。
type TinyWinRepository interface {
	Create(win *model.TinyWin) error
	FindByUser(userID uint, limit int) ([]model.TinyWin, error)
	FindRecentByUser(userID uint, days int) ([]model.TinyWin, error)
}

type tinyWinRepository struct {
	db *gorm.DB
}

// NewTinyWinRepository 创建一个新的 TinyWinRepository 实例。
func NewTinyWinRepository(db *gorm.DB) TinyWinRepository {
	return &tinyWinRepository{db: db}
}

func (r *tinyWinRepository) Create(win *model.TinyWin) error {
	return r.db.Create(win).Error
}

func (r *tinyWinRepository) FindByUser(userID uint, limit int) ([]model.TinyWin, error) {
	var wins []model.TinyWin
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&wins).Error
	return wins, err
}

func (r *tinyWinRepository) FindRecentByUser(userID uint, days int) ([]model.TinyWin, error) {
	var wins []model.TinyWin
	since := time.Now().AddDate(0, 0, -days)
	err := r.db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").Find(&wins).Error
	return wins, err
}
