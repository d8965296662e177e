package repository

import (
	"gorm.io/gorm"
	"unity-within-go/internal/model"
)

// ReportRepository 定义了举报记录的持久化操作。
type ReportRepository interface {
	Create(report *model.Report) error
	FindWithPagination(offset, limit int) ([]model.Report, int64, error)
	Count() (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建一个新的 ReportRepository 实例。
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(report *model.Report) error {
	return r.db.Create(report).Error
}

func (r *reportRepository) FindWithPagination(offset, limit int) ([]model.Report, int64, error) {
	var reports []model.Report
	var total int64

	db := r.db.Model(&model.Report{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *reportRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&model.Report{}).Count(&total).Error
	return total, err
}
