// Package metrics 定义了服务的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderAttempts 按提供商与结果统计生成调用次数。
	// outcome 取值: success / auth / rate_limited / timeout / malformed / unavailable。
	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_provider_attempts_total",
		Help: "Text generation attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	// ModerationVerdicts 按标签统计审核结论。
	// label 取值: safe / unsafe / crisis / fail_open。
	ModerationVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_verdicts_total",
		Help: "Moderation classifier verdicts by label.",
	}, []string{"label"})

	// ChatMessagesAdmitted 统计通过准入并广播的消息数。
	ChatMessagesAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_admitted_total",
		Help: "Chat messages persisted and broadcast.",
	})

	// ChatMessagesRejected 按拒绝阶段统计被拒消息数。
	// stage 取值: fast_filter / moderation。
	ChatMessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_rejected_total",
		Help: "Chat messages rejected before broadcast, by stage.",
	}, []string{"stage"})

	// WebsocketSessions 记录当前存活的 WebSocket 会话数。
	WebsocketSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_websocket_sessions",
		Help: "Currently connected chat sessions.",
	})
)
