package ai

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openaiProvider 通过 OpenAI 兼容的 chat/completions 接口调用后端。
// Groq、Mistral、DeepSeek 都暴露同一协议，只是 base_url 与模型名不同，
// 所以它们共用这一个适配器。
type openaiProvider struct {
	name   string
	model  string
	client *openai.Client
}

// NewOpenAICompatProvider 创建一个 OpenAI 兼容提供商适配器。
// baseURL 为空时使用官方默认地址。
func NewOpenAICompatProvider(name, apiKey, baseURL, model string) Provider {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &openaiProvider{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (p *openaiProvider) Name() string {
	return p.name
}

func (p *openaiProvider) Complete(ctx context.Context, req CompletionRequest) (*Result, error) {
	started := time.Now()

	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: effectivePrompt(req)},
		},
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, newProviderError(p.name, p.classify(err), err)
	}

	if len(resp.Choices) == 0 {
		return nil, newProviderError(p.name, KindUnavailable, errors.New("empty choices in response"))
	}

	return finishResult(p.name, resp.Choices[0].Message.Content, req.JSONMode, started)
}

// classify 把 go-openai 的错误形状映射到统一的错误类别。
func (p *openaiProvider) classify(err error) ErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return kindFromStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return kindFromStatus(reqErr.HTTPStatusCode)
	}
	return kindFromTransportErr(err)
}
