package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrAllProvidersExhausted 表示所有提供商都已尝试且全部失败。
// 调用方看到它时必须降级为静态回退内容，编排器自身从不伪造回答。
var ErrAllProvidersExhausted = errors.New("all ai providers exhausted")

// ErrorKind 区分提供商错误的类别，编排器据此决定重试还是换下一家。
type ErrorKind int

const (
	// KindAuth 凭证无效或缺失，重试无意义，直接换下一个提供商。
	KindAuth ErrorKind = iota + 1
	// KindRateLimited 命中速率限制 (429)，可在退避后重试同一提供商。
	KindRateLimited
	// KindTimeout 单次调用超出时限，可在退避后重试同一提供商。
	KindTimeout
	// KindMalformed JSON 模式下返回内容无法解析为 JSON。
	// 不浪费重试预算，立即落到下一个提供商。
	KindMalformed
	// KindUnavailable 网络错误或 5xx 等其余失败。
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ProviderError 是所有适配器统一的错误形态。
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// kindFromStatus 将 HTTP 状态码映射为错误类别。
func kindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindUnavailable
	}
}

// kindFromTransportErr 将传输层错误映射为错误类别。
// 上下文超时视为单次调用超时，其余一律视为不可用。
func kindFromTransportErr(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnavailable
}
