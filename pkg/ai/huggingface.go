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

const defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"

// huggingfaceProvider 调用 HuggingFace 推理接口。
// 该接口没有 system 角色，系统指令拼接在提示前面。
type huggingfaceProvider struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHuggingFaceProvider 创建一个 HuggingFace 提供商适配器。
func NewHuggingFaceProvider(name, apiKey, baseURL, model string) Provider {
	if baseURL == "" {
		baseURL = defaultHuggingFaceBaseURL
	}
	return &huggingfaceProvider{
		name:    name,
		model:   model,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (p *huggingfaceProvider) Name() string {
	return p.name
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfResponse struct {
	GeneratedText string `json:"generated_text"`
}

func (p *huggingfaceProvider) Complete(ctx context.Context, req CompletionRequest) (*Result, error) {
	started := time.Now()

	hfPrompt := fmt.Sprintf("%s\n\nUser: %s\nAssistant:", req.SystemInstruction, effectivePrompt(req))
	reqBytes, err := json.Marshal(hfRequest{
		Inputs: hfPrompt,
		Parameters: hfParameters{
			MaxNewTokens:   300,
			Temperature:    0.7,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return nil, newProviderError(p.name, KindUnavailable, err)
	}

	url := fmt.Sprintf("%s/models/%s", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, newProviderError(p.name, KindUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, newProviderError(p.name, kindFromTransportErr(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, newProviderError(p.name, kindFromStatus(resp.StatusCode),
			fmt.Errorf("inference api returned %s: %s", resp.Status, string(bodyBytes)))
	}

	// 响应可能是数组也可能是单个对象，两种形状都兼容。
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newProviderError(p.name, KindUnavailable, err)
	}
	var many []hfResponse
	var text string
	if err := json.Unmarshal(bodyBytes, &many); err == nil && len(many) > 0 {
		text = many[0].GeneratedText
	} else {
		var one hfResponse
		if err := json.Unmarshal(bodyBytes, &one); err == nil {
			text = one.GeneratedText
		}
	}
	if text == "" {
		return nil, newProviderError(p.name, KindUnavailable, errors.New("no generated_text in response"))
	}

	return finishResult(p.name, text, req.JSONMode, started)
}
