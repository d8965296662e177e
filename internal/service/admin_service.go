package service

import (
	"context"

	"unity-within-go/internal/model"
	"unity-within-go/internal/repository"
	"unity-within-go/pkg/es"
	"unity-within-go/pkg/tasks"
)

// PlatformStats 是管理面总览数据。
type PlatformStats struct {
	TotalUsers       int64 `json:"totalUsers"`
	TotalMessages    int64 `json:"totalMessages"`
	TotalRooms       int64 `json:"totalRooms"`
	TotalReports     int64 `json:"totalReports"`
	ModerationTotal  int64 `json:"moderationTotal"`
	ModerationUnsafe int64 `json:"moderationUnsafe"`
	ModerationCrisis int64 `json:"moderationCrisis"`
}

// AdminService 定义了管理面的业务接口。
type AdminService interface {
	Stats() (*PlatformStats, error)
	ListUsers(offset, limit int) ([]model.User, int64, error)
	ListModerationLogs(flagType string, offset, limit int) ([]model.ModerationLog, int64, error)
	// SearchModerationEvents 在分析索引中全文检索审核事件。
	SearchModerationEvents(ctx context.Context, keyword, flagType string, from, size int) ([]tasks.ModerationEvent, int64, error)
	ListMessages(offset, limit int) ([]model.ChatMessage, int64, error)
	DeleteMessage(msgID uint) error
	ListReports(offset, limit int) ([]model.Report, int64, error)
	CreateRoom(room *model.ChatRoom) error
	DeleteRoom(roomID uint) error
	// AbuseCount 返回用户在当前窗口内的违规次数。
	AbuseCount(ctx context.Context, userID uint) (int64, error)
}

type adminService struct {
	userRepo       repository.UserRepository
	messageRepo    repository.ChatMessageRepository
	roomRepo       repository.ChatRoomRepository
	reportRepo     repository.ReportRepository
	moderationRepo repository.ModerationLogRepository
	convRepo       repository.ConversationRepository
	esIndexName    string
	esEnabled      bool
}

// NewAdminService 创建一个新的 AdminService 实例。
// esEnabled 为 false 时全文检索降级为数据库分页查询。
func NewAdminService(
	userRepo repository.UserRepository,
	messageRepo repository.ChatMessageRepository,
	roomRepo repository.ChatRoomRepository,
	reportRepo repository.ReportRepository,
	moderationRepo repository.ModerationLogRepository,
	convRepo repository.ConversationRepository,
	esIndexName string,
	esEnabled bool,
) AdminService {
	return &adminService{
		userRepo:       userRepo,
		messageRepo:    messageRepo,
		roomRepo:       roomRepo,
		reportRepo:     reportRepo,
		moderationRepo: moderationRepo,
		convRepo:       convRepo,
		esIndexName:    esIndexName,
		esEnabled:      esEnabled,
	}
}

func (s *adminService) Stats() (*PlatformStats, error) {
	stats := &PlatformStats{}
	var err error

	if stats.TotalUsers, err = s.userRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalMessages, err = s.messageRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalRooms, err = s.roomRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalReports, err = s.reportRepo.Count(); err != nil {
		return nil, err
	}
	if stats.ModerationTotal, err = s.moderationRepo.Count(); err != nil {
		return nil, err
	}
	if stats.ModerationUnsafe, err = s.moderationRepo.CountByFlagType(model.FlagUnsafe); err != nil {
		return nil, err
	}
	if stats.ModerationCrisis, err = s.moderationRepo.CountByFlagType(model.FlagCrisis); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *adminService) ListUsers(offset, limit int) ([]model.User, int64, error) {
	return s.userRepo.FindWithPagination(offset, limit)
}

func (s *adminService) ListModerationLogs(flagType string, offset, limit int) ([]model.ModerationLog, int64, error) {
	if flagType != "" {
		return s.moderationRepo.FindByFlagType(flagType, offset, limit)
	}
	return s.moderationRepo.FindWithPagination(offset, limit)
}

func (s *adminService) SearchModerationEvents(ctx context.Context, keyword, flagType string, from, size int) ([]tasks.ModerationEvent, int64, error) {
	if !s.esEnabled {
		// 检索索引不可用时退回数据库记录
		logs, total, err := s.ListModerationLogs(flagType, from, size)
		if err != nil {
			return nil, 0, err
		}
		events := make([]tasks.ModerationEvent, 0, len(logs))
		for _, entry := range logs {
			events = append(events, tasks.ModerationEvent{
				UserID:     entry.UserID,
				Content:    entry.Content,
				Reason:     entry.Reason,
				FlagType:   entry.FlagType,
				IPAddress:  entry.IPAddress,
				OccurredAt: entry.CreatedAt,
			})
		}
		return events, total, nil
	}
	return es.SearchEvents(ctx, s.esIndexName, keyword, flagType, from, size)
}

func (s *adminService) ListMessages(offset, limit int) ([]model.ChatMessage, int64, error) {
	return s.messageRepo.FindRecent(offset, limit)
}

func (s *adminService) DeleteMessage(msgID uint) error {
	return s.messageRepo.Delete(msgID)
}

func (s *adminService) ListReports(offset, limit int) ([]model.Report, int64, error) {
	return s.reportRepo.FindWithPagination(offset, limit)
}

func (s *adminService) CreateRoom(room *model.ChatRoom) error {
	return s.roomRepo.Create(room)
}

func (s *adminService) DeleteRoom(roomID uint) error {
	return s.roomRepo.Delete(roomID)
}

func (s *adminService) AbuseCount(ctx context.Context, userID uint) (int64, error) {
	return s.convRepo.GetAbuseCount(ctx, userID)
}
