// Package pipeline 实现了审核事件的异步处理流程。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"unity-within-go/internal/repository"
	"unity-within-go/pkg/es"
	"unity-within-go/pkg/log"
	"unity-within-go/pkg/tasks"
)

// ModerationEventProcessor 消费审核事件：写入检索索引并累计滥用计数。
// MySQL 审核日志在准入阶段已同步写入，这里只做派生数据。
type ModerationEventProcessor struct {
	convRepo    repository.ConversationRepository
	esIndexName string
	esEnabled   bool
	abuseTTL    time.Duration
}

// NewModerationEventProcessor 创建一个新的事件处理器。
func NewModerationEventProcessor(
	convRepo repository.ConversationRepository,
	esIndexName string,
	esEnabled bool,
	abuseTTL time.Duration,
) *ModerationEventProcessor {
	if abuseTTL <= 0 {
		abuseTTL = 24 * time.Hour
	}
	return &ModerationEventProcessor{
		convRepo:    convRepo,
		esIndexName: esIndexName,
		esEnabled:   esEnabled,
		abuseTTL:    abuseTTL,
	}
}

// Process 处理一条审核事件。索引失败会返回错误触发重试，
// 滥用计数失败只记日志，避免重复消费导致计数虚高。
func (p *ModerationEventProcessor) Process(ctx context.Context, event tasks.ModerationEvent) error {
	if p.esEnabled {
		if err := es.IndexEvent(ctx, p.esIndexName, event); err != nil {
			return fmt.Errorf("索引审核事件失败: %w", err)
		}
	}

	if event.UserID != nil {
		count, err := p.convRepo.IncrAbuseCount(ctx, *event.UserID, p.abuseTTL)
		if err != nil {
			log.Errorf("累计滥用计数失败: user=%d, err=%v", *event.UserID, err)
		} else if count >= 3 {
			log.Warnw("用户违规次数达到阈值", "user_id", *event.UserID, "count", count)
		}
	}

	log.Infow("审核事件处理完成", "event_id", event.EventID, "flag_type", event.FlagType)
	return nil
}
