// Package service 实现了应用的核心业务逻辑。
package service

import (
	"context"
	"fmt"
	"strings"

	"unity-within-go/internal/metrics"
	"unity-within-go/internal/model"
	"unity-within-go/pkg/ai"
	"unity-within-go/pkg/log"
)

const moderatorInstruction = "You are a content moderator."

// Verdict 是一次内容审核的结论。
// FailedOpen 为 true 表示分类器不可用或答复无法解析，
// 按可用性优先原则放行，但必须可观测。
type Verdict struct {
	Safe       bool
	FlagType   string // UNSAFE / CRISIS，Safe 为 true 时为空
	FailedOpen bool
}

// ModerationService 定义了内容审核的业务接口。
type ModerationService interface {
	Classify(ctx context.Context, content string) Verdict
}

type moderationService struct {
	orchestrator *ai.Orchestrator
}

// NewModerationService 创建一个新的 ModerationService 实例。
func NewModerationService(orchestrator *ai.Orchestrator) ModerationService {
	return &moderationService{orchestrator: orchestrator}
}

func moderationPrompt(content string) string {
	return fmt.Sprintf(`Task: Moderate this chat message for a mental health support platform for youth.
Message: "%s"

Rules:
1. Flag as 'UNSAFE' if it contains: Hate speech, severe bullying, explicit sexual content, or encouragement of self-harm.
2. Flag as 'CRISIS' if it contains: Clear intent of suicide, self-harm, or immediate danger to self/others.
3. Otherwise, return 'SAFE'.

Output format: Just one word: SAFE, UNSAFE, or CRISIS.`, content)
}

// Classify 调用生成管线对消息进行深度审核。
// CRISIS 优先于 UNSAFE 判定；分类器失败时放行并记录 fail_open。
func (s *moderationService) Classify(ctx context.Context, content string) Verdict {
	result, err := s.orchestrator.Run(ctx, ai.CompletionRequest{
		Prompt:            moderationPrompt(content),
		SystemInstruction: moderatorInstruction,
	})
	if err != nil {
		log.Warnw("内容审核分类器不可用，按放行处理", "error", err)
		metrics.ModerationVerdicts.WithLabelValues("fail_open").Inc()
		return Verdict{Safe: true, FailedOpen: true}
	}

	upper := strings.ToUpper(strings.TrimSpace(result.Text))
	// CRISIS 必须先于 UNSAFE 检查，两者同时出现时按危机处理
	if strings.Contains(upper, "CRISIS") {
		metrics.ModerationVerdicts.WithLabelValues("crisis").Inc()
		return Verdict{Safe: false, FlagType: model.FlagCrisis}
	}
	if strings.Contains(upper, "UNSAFE") {
		metrics.ModerationVerdicts.WithLabelValues("unsafe").Inc()
		return Verdict{Safe: false, FlagType: model.FlagUnsafe}
	}
	if !strings.Contains(upper, "SAFE") {
		// 答复不含任何已知标签，视同分类器失效
		log.Warnw("内容审核答复无法解析，按放行处理", "reply", result.Text)
		metrics.ModerationVerdicts.WithLabelValues("fail_open").Inc()
		return Verdict{Safe: true, FailedOpen: true}
	}

	metrics.ModerationVerdicts.WithLabelValues("safe").Inc()
	return Verdict{Safe: true}
}
