package service

import (
	"unity-within-go/internal/model"
	"unity-within-go/internal/repository"
)

// moodRangeDays 将查询参数里的时间范围名映射为天数。
var moodRangeDays = map[string]int{
	"day":   1,
	"week":  7,
	"month": 30,
	"year":  365,
}

// WellnessService 定义了心情打卡、日记与小胜利的业务接口。
type WellnessService interface {
	RecordMood(mood *model.UserMood) error
	ListMoods(userID uint, limit int) ([]model.UserMood, error)
	// ListMoodsInRange 按时间范围名 (day/week/month/year) 查询，未知范围按 week 处理。
	ListMoodsInRange(userID uint, rangeName string) ([]model.UserMood, error)
	CreateJournal(entry *model.JournalEntry) error
	ListJournals(userID uint, offset, limit int) ([]model.JournalEntry, int64, error)
	RecordTinyWin(win *model.TinyWin) error
	ListTinyWins(userID uint, limit int) ([]model.TinyWin, error)
}

type wellnessService struct {
	moodRepo    repository.MoodRepository
	journalRepo repository.JournalRepository
	tinyWinRepo repository.TinyWinRepository
}

// NewWellnessService 创建一个新的 WellnessService 实例。
func NewWellnessService(
	moodRepo repository.MoodRepository,
	journalRepo repository.JournalRepository,
	tinyWinRepo repository.TinyWinRepository,
) WellnessService {
	return &wellnessService{
		moodRepo:    moodRepo,
		journalRepo: journalRepo,
		tinyWinRepo: tinyWinRepo,
	}
}

func (s *wellnessService) RecordMood(mood *model.UserMood) error {
	// 约束强度在 1-10 之间，越界时取默认值
	if mood.Intensity < 1 || mood.Intensity > 10 {
		mood.Intensity = 5
	}
	return s.moodRepo.Create(mood)
}

func (s *wellnessService) ListMoods(userID uint, limit int) ([]model.UserMood, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.moodRepo.FindByUser(userID, limit)
}

func (s *wellnessService) ListMoodsInRange(userID uint, rangeName string) ([]model.UserMood, error) {
	days, ok := moodRangeDays[rangeName]
	if !ok {
		days = moodRangeDays["week"]
	}
	return s.moodRepo.FindRecentByUser(userID, days)
}

func (s *wellnessService) CreateJournal(entry *model.JournalEntry) error {
	return s.journalRepo.Create(entry)
}

func (s *wellnessService) ListJournals(userID uint, offset, limit int) ([]model.JournalEntry, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.journalRepo.FindByUser(userID, offset, limit)
}

func (s *wellnessService) RecordTinyWin(win *model.TinyWin) error {
	return s.tinyWinRepo.Create(win)
}

func (s *wellnessService) ListTinyWins(userID uint, limit int) ([]model.TinyWin, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.tinyWinRepo.FindByUser(userID, limit)
}
