// Package ai 实现多提供商文本生成管线：统一的提供商适配接口、
// 带重试与回退的编排器，以及对模型输出的 JSON 恢复。
package ai

import (
	"context"
	"time"
)

// CompletionRequest 描述一次文本生成调用，每次调用构造一个，不可变。
type CompletionRequest struct {
	Prompt            string
	SystemInstruction string
	// JSONMode 要求提供商返回可解析的 JSON 对象。
	JSONMode bool
}

// Result 是适配器归一化后的生成结果，被编排器消费后即丢弃。
type Result struct {
	Text     string
	JSON     map[string]interface{} // 仅 JSONMode 下填充
	Provider string
	Latency  time.Duration
}

// Provider 是单个文本生成后端的统一调用形态。
// 每个适配器负责把各家的请求/响应/错误形状归一化到这个契约。
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*Result, error)
}

// jsonModeSuffix 附加在 JSON 模式的用户提示之后，与各家的
// response_format 参数双保险，部分提供商只认提示里的要求。
const jsonModeSuffix = "\n\nReturn ONLY valid JSON. Do not wrap in markdown."

// effectivePrompt 返回本次调用实际下发的用户提示。
func effectivePrompt(req CompletionRequest) string {
	if !req.JSONMode {
		return req.Prompt
	}
	return req.Prompt + jsonModeSuffix
}

// finishResult 对适配器拿到的原始文本做统一收尾：剥离代码围栏，
// JSON 模式下尝试恢复对象，恢复失败返回 KindMalformed——
// 编排器对它不做重试，立即换下一个提供商。
func finishResult(provider, rawText string, jsonMode bool, started time.Time) (*Result, error) {
	res := &Result{
		Text:     stripCodeFences(rawText),
		Provider: provider,
		Latency:  time.Since(started),
	}
	if !jsonMode {
		return res, nil
	}

	parsed := ExtractJSON(rawText)
	if parsed == nil {
		return nil, newProviderError(provider, KindMalformed, errInvalidJSON)
	}
	res.JSON = parsed
	return res, nil
}
