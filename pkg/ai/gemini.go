package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// geminiProvider 通过官方 genai SDK 调用 Gemini。
type geminiProvider struct {
	name   string
	model  string
	client *genai.Client
}

// NewGeminiProvider 创建一个 Gemini 提供商适配器。
func NewGeminiProvider(ctx context.Context, name, apiKey, model string) (Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &geminiProvider{name: name, model: model, client: client}, nil
}

func (p *geminiProvider) Name() string {
	return p.name
}

func (p *geminiProvider) Complete(ctx context.Context, req CompletionRequest) (*Result, error) {
	started := time.Now()

	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(effectivePrompt(req)), cfg)
	if err != nil {
		return nil, newProviderError(p.name, p.classify(err), err)
	}

	text := resp.Text()
	if text == "" {
		return nil, newProviderError(p.name, KindUnavailable, errors.New("empty response from gemini"))
	}

	return finishResult(p.name, text, req.JSONMode, started)
}

// classify 把 genai SDK 的错误映射到统一的错误类别。
func (p *geminiProvider) classify(err error) ErrorKind {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return kindFromStatus(apiErr.Code)
	}
	return kindFromTransportErr(err)
}
