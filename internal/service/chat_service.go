package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"unity-within-go/internal/metrics"
	"unity-within-go/internal/model"
	"unity-within-go/internal/repository"
	"unity-within-go/internal/ws"
	"unity-within-go/pkg/kafka"
	"unity-within-go/pkg/log"
	"unity-within-go/pkg/tasks"
)

// 拒绝文案，客户端直接展示。
const (
	reasonProhibitedWords = "Contains prohibited words."
	reasonUnsafe          = "This message does not meet our community safety guidelines."
	reasonCrisis          = "Your message indicates you might be in distress. We care about you. Please use the Crisis Shield button (bottom right) to connect with support immediately."
)

// Broadcaster 抽象了房间广播能力，便于在测试中替换真实的 Hub。
type Broadcaster interface {
	BroadcastRoom(roomID uint, msgType string, data interface{})
}

// SubmitMessageInput 是一次消息准入请求的全部输入。
type SubmitMessageInput struct {
	RoomID      *uint // nil 表示全局匿名树洞
	UserID      *uint // nil 表示未登录的匿名发送者
	Content     string
	IsAnonymous bool
	ReplyToID   *uint
	UserName    string // 客户端自报的显示名，仅对无账号的非匿名发送者生效
	IPAddress   string
	Source      string // websocket / rest
}

// ChatService 定义了聊天消息准入的业务接口。
// 每条消息依次经过快速词表过滤与深度审核，任一阶段拒绝即终止，
// 只有通过全部检查的消息才会持久化并广播。
type ChatService interface {
	SubmitMessage(ctx context.Context, input SubmitMessageInput) (*model.ChatBroadcast, *model.ChatRejection, error)
	ListRooms() ([]model.ChatRoom, error)
	// RoomHistory 返回房间消息并按匿名规则补全显示名。
	RoomHistory(roomID *uint, offset, limit int) ([]model.ChatBroadcast, int64, error)
	CreateReport(report *model.Report) error
}

type chatService struct {
	messageRepo    repository.ChatMessageRepository
	roomRepo       repository.ChatRoomRepository
	reportRepo     repository.ReportRepository
	moderationRepo repository.ModerationLogRepository
	moderation     ModerationService
	broadcaster    Broadcaster
	denylist       []string
	kafkaEnabled   bool
}

// NewChatService 创建一个新的 ChatService 实例。
// kafkaEnabled 为 false 时拒绝事件只落库，不发送到分析流。
func NewChatService(
	messageRepo repository.ChatMessageRepository,
	roomRepo repository.ChatRoomRepository,
	reportRepo repository.ReportRepository,
	moderationRepo repository.ModerationLogRepository,
	moderation ModerationService,
	broadcaster Broadcaster,
	denylist []string,
	kafkaEnabled bool,
) ChatService {
	return &chatService{
		messageRepo:    messageRepo,
		roomRepo:       roomRepo,
		reportRepo:     reportRepo,
		moderationRepo: moderationRepo,
		moderation:     moderation,
		broadcaster:    broadcaster,
		denylist:       denylist,
		kafkaEnabled:   kafkaEnabled,
	}
}

// SubmitMessage 执行完整的消息准入流程。
// 返回值三选一：广播载体（已准入）、拒绝通知（被拒）、或错误（持久化失败）。
func (s *chatService) SubmitMessage(ctx context.Context, input SubmitMessageInput) (*model.ChatBroadcast, *model.ChatRejection, error) {
	// 1. 快速词表过滤，命中即拒，不触发深度审核
	if s.hitsDenylist(input.Content) {
		log.Infow("消息被词表过滤拒绝", "source", input.Source)
		metrics.ChatMessagesRejected.WithLabelValues("fast_filter").Inc()
		return nil, &model.ChatRejection{Reason: reasonProhibitedWords}, nil
	}

	// 2. 深度审核
	verdict := s.moderation.Classify(ctx, input.Content)
	if !verdict.Safe {
		s.recordRejection(ctx, input, verdict.FlagType)
		metrics.ChatMessagesRejected.WithLabelValues("moderation").Inc()
		if verdict.FlagType == model.FlagCrisis {
			return nil, &model.ChatRejection{Reason: reasonCrisis, IsCrisis: true}, nil
		}
		return nil, &model.ChatRejection{Reason: reasonUnsafe}, nil
	}

	// 3. 持久化
	msg := &model.ChatMessage{
		RoomID:      input.RoomID,
		UserID:      input.UserID,
		Content:     input.Content,
		IsAnonymous: input.IsAnonymous,
		ReplyToID:   input.ReplyToID,
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, nil, err
	}

	// 4. 组装广播载体并投递
	broadcast := s.toBroadcast(msg, input.UserName)
	metrics.ChatMessagesAdmitted.Inc()
	s.broadcaster.BroadcastRoom(roomKey(input.RoomID), "receive_message", broadcast)
	return broadcast, nil, nil
}

func (s *chatService) hitsDenylist(content string) bool {
	lower := strings.ToLower(content)
	for _, word := range s.denylist {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// recordRejection 同步写入审核日志（权威记录），再尽力发送分析事件。
// 任一环节失败都不影响对发送者的拒绝答复。
func (s *chatService) recordRejection(ctx context.Context, input SubmitMessageInput, flagType string) {
	entry := &model.ModerationLog{
		UserID:    input.UserID,
		Content:   input.Content,
		Reason:    "AI Detection",
		FlagType:  flagType,
		IPAddress: input.IPAddress,
	}
	if err := s.moderationRepo.Create(entry); err != nil {
		log.Errorf("写入审核日志失败: %v", err)
	}

	if !s.kafkaEnabled {
		return
	}
	event := tasks.ModerationEvent{
		EventID:    uuid.NewString(),
		UserID:     input.UserID,
		Content:    input.Content,
		Reason:     "AI Detection",
		FlagType:   flagType,
		IPAddress:  input.IPAddress,
		Source:     input.Source,
		OccurredAt: time.Now(),
	}
	if err := kafka.ProduceModerationEvent(event); err != nil {
		log.Errorf("发送审核事件到 Kafka 失败: %v", err)
	}
}

// toBroadcast 组装广播载体。匿名消息的 UserName 必须为 nil，
// 与发送者的真实资料无关。
func (s *chatService) toBroadcast(msg *model.ChatMessage, userName string) *model.ChatBroadcast {
	broadcast := &model.ChatBroadcast{
		ID:          msg.ID,
		RoomID:      msg.RoomID,
		UserID:      msg.UserID,
		Content:     msg.Content,
		IsAnonymous: msg.IsAnonymous,
		ReplyToID:   msg.ReplyToID,
		CreatedAt:   msg.CreatedAt,
	}
	if !msg.IsAnonymous {
		var name string
		// 资料名优先，防止已登录用户冒用他人显示名；
		// 客户端自报的名字只给无账号的发送者用
		if msg.UserID != nil {
			if fetched, err := s.messageRepo.SenderName(*msg.UserID); err == nil {
				name = fetched
			}
		}
		if name == "" {
			name = userName
		}
		if name == "" {
			name = "User"
		}
		broadcast.UserName = &name
	}
	return broadcast
}

func roomKey(roomID *uint) uint {
	if roomID == nil {
		return ws.GlobalFeedRoom
	}
	return *roomID
}

func (s *chatService) ListRooms() ([]model.ChatRoom, error) {
	return s.roomRepo.FindAll()
}

func (s *chatService) RoomHistory(roomID *uint, offset, limit int) ([]model.ChatBroadcast, int64, error) {
	messages, total, err := s.messageRepo.FindByRoom(roomID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	history := make([]model.ChatBroadcast, 0, len(messages))
	for _, msg := range messages {
		history = append(history, *s.toBroadcast(&msg, ""))
	}
	return history, total, nil
}

func (s *chatService) CreateReport(report *model.Report) error {
	return s.reportRepo.Create(report)
}
