package ai

import (
	"context"
	"errors"
	"time"

	"unity-within-go/internal/metrics"
	"unity-within-go/pkg/log"
)

const (
	defaultAttemptTimeout = 6 * time.Second
	defaultRetries        = 1
	defaultBackoffBase    = 500 * time.Millisecond
)

// Orchestrator 按固定顺序尝试一组提供商，返回第一个成功结果。
// 顺序是成本/质量/可用性的权衡，由配置决定而非写死在逻辑里。
// 所有提供商级错误都被吸收在这里，上层只会看到结果或
// ErrAllProvidersExhausted。
type Orchestrator struct {
	providers      []Provider
	retries        int           // 单个提供商的最大尝试次数
	attemptTimeout time.Duration // 单次尝试的时限
	backoffBase    time.Duration // 退避起始间隔，每次尝试翻倍
	maxTotalWait   time.Duration // 整条链路的总时限，0 表示不限制
}

// NewOrchestrator 创建一个编排器。providers 的顺序即回退顺序。
func NewOrchestrator(providers []Provider, retries int, attemptTimeout, backoffBase, maxTotalWait time.Duration) *Orchestrator {
	if retries <= 0 {
		retries = defaultRetries
	}
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	return &Orchestrator{
		providers:      providers,
		retries:        retries,
		attemptTimeout: attemptTimeout,
		backoffBase:    backoffBase,
		maxTotalWait:   maxTotalWait,
	}
}

// Run 依次尝试每个提供商，首个成功立即返回（后面的提供商不会被调用）。
// 429/超时在退避后重试同一提供商；鉴权失败、JSON 畸形或重试耗尽则
// 换下一个。全部失败返回 ErrAllProvidersExhausted——编排器从不伪造
// 内容，回退文案由调用方决定。
func (o *Orchestrator) Run(ctx context.Context, req CompletionRequest) (*Result, error) {
	if len(o.providers) == 0 {
		return nil, ErrAllProvidersExhausted
	}

	// 总时限兜底：单个提供商反复出错不能拖垮整条链路。
	if o.maxTotalWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.maxTotalWait)
		defer cancel()
	}

	for _, provider := range o.providers {
		delay := o.backoffBase
		for attempt := 0; attempt < o.retries; attempt++ {
			if ctx.Err() != nil {
				return nil, ErrAllProvidersExhausted
			}

			res, err := o.attempt(ctx, provider, req)
			if err == nil {
				metrics.ProviderAttempts.WithLabelValues(provider.Name(), "success").Inc()
				log.Infow("ai completion succeeded",
					"provider", res.Provider,
					"latency", res.Latency.String(),
					"attempt", attempt+1,
				)
				return res, nil
			}

			kind := KindUnavailable
			var perr *ProviderError
			if errors.As(err, &perr) {
				kind = perr.Kind
			}
			metrics.ProviderAttempts.WithLabelValues(provider.Name(), kind.String()).Inc()
			log.Warnf("provider %s attempt %d failed (%s): %v", provider.Name(), attempt+1, kind, err)

			// 只有速率限制和超时值得对同一提供商重试。
			if (kind == KindRateLimited || kind == KindTimeout) && attempt < o.retries-1 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ErrAllProvidersExhausted
				}
				delay *= 2
				continue
			}
			break
		}
	}

	return nil, ErrAllProvidersExhausted
}

// attempt 在单次时限内调用一个提供商。
func (o *Orchestrator) attempt(ctx context.Context, provider Provider, req CompletionRequest) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	res, err := provider.Complete(attemptCtx, req)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		// 适配器可能把超时报成传输错误，这里统一纠正类别。
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Kind != KindTimeout {
			return nil, newProviderError(provider.Name(), KindTimeout, perr.Err)
		}
	}
	return res, err
}
