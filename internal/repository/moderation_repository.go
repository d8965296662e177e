package repository

import (
	"gorm.io/gorm"
	"unity-within-go/internal/model"
)

// ModerationLogRepository 定义了审核日志的持久化操作。
// 日志只追加、只读取，不提供更新或删除。
type ModerationLogRepository interface {
	Create(entry *model.ModerationLog) error
	FindWithPagination(offset, limit int) ([]model.ModerationLog, int64, error)
	// FindByFlagType 按标记类型过滤分页检索日志。
	FindByFlagType(flagType string, offset, limit int) ([]model.ModerationLog, int64, error)
	Count() (int64, error)
	CountByFlagType(flagType string) (int64, error)
}

type moderationLogRepository struct {
	db *gorm.DB
}

// NewModerationLogRepository 创建一个新的 ModerationLogRepository 实例。
func NewModerationLogRepository(db *gorm.DB) ModerationLogRepository {
	return &moderationLogRepository{db: db}
}

func (r *moderationLogRepository) Create(entry *model.ModerationLog) error {
	return r.db.Create(entry).Error
}

func (r *moderationLogRepository) FindWithPagination(offset, limit int) ([]model.ModerationLog, int64, error) {
	var logs []model.ModerationLog
	var total int64

	db := r.db.Model(&model.ModerationLog{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *moderationLogRepository) FindByFlagType(flagType string, offset, limit int) ([]model.ModerationLog, int64, error) {
	var logs []model.ModerationLog
	var total int64

	db := r.db.Model(&model.ModerationLog{}).Where("flag_type = ?", flagType)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *moderationLogRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&model.ModerationLog{}).Count(&total).Error
	return total, err
}

func (r *moderationLogRepository) CountByFlagType(flagType string) (int64, error) {
	var total int64
	err := r.db.Model(&model.ModerationLog{}).Where("flag_type = ?", flagType).Count(&total).Error
	return total, err
}
