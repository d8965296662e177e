package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ollamaProvider 调用本地 Ollama 实例，是链条末端的保底提供商：
// 不需要 API Key，外网全挂时仍可能给出回答。
type ollamaProvider struct {
	name    string
	model   string
	baseURL string
	client  *http.Client
}

// NewOllamaProvider 创建一个 Ollama 提供商适配器。
func NewOllamaProvider(name, baseURL, model string) Provider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &ollamaProvider{
		name:    name,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (p *ollamaProvider) Name() string {
	return p.name
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (p *ollamaProvider) Complete(ctx context.Context, req CompletionRequest) (*Result, error) {
	started := time.Now()

	reqBytes, err := json.Marshal(ollamaRequest{
		Model:  p.model,
		Prompt: effectivePrompt(req),
		System: req.SystemInstruction,
		Stream: false,
	})
	if err != nil {
		return nil, newProviderError(p.name, KindUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, newProviderError(p.name, KindUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, newProviderError(p.name, kindFromTransportErr(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, newProviderError(p.name, kindFromStatus(resp.StatusCode),
			fmt.Errorf("ollama returned %s: %s", resp.Status, string(bodyBytes)))
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, newProviderError(p.name, KindUnavailable, err)
	}
	if parsed.Response == "" {
		return nil, newProviderError(p.name, KindUnavailable, errors.New("empty response from ollama"))
	}

	return finishResult(p.name, parsed.Response, req.JSONMode, started)
}
