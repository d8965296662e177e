package ai

import (
	"context"

	"unity-within-go/internal/config"
	"unity-within-go/pkg/log"
)

// BuildProviders 根据配置按序构建提供商列表。
// 缺少凭证的提供商直接跳过（Ollama 例外，本地实例无需凭证），
// 这样编排器拿到的列表里只有真正可用的后端。
func BuildProviders(ctx context.Context, cfg config.AIConfig) []Provider {
	providers := make([]Provider, 0, len(cfg.Providers))

	for _, pc := range cfg.Providers {
		switch pc.Type {
		case "gemini":
			if pc.APIKey == "" {
				log.Warnf("provider %s 未配置 api_key，跳过", pc.Name)
				continue
			}
			p, err := NewGeminiProvider(ctx, pc.Name, pc.APIKey, pc.Model)
			if err != nil {
				log.Errorf("provider %s 初始化失败: %v", pc.Name, err)
				continue
			}
			providers = append(providers, p)
		case "openai":
			if pc.APIKey == "" {
				log.Warnf("provider %s 未配置 api_key，跳过", pc.Name)
				continue
			}
			providers = append(providers, NewOpenAICompatProvider(pc.Name, pc.APIKey, pc.BaseURL, pc.Model))
		case "huggingface":
			if pc.APIKey == "" {
				log.Warnf("provider %s 未配置 api_key，跳过", pc.Name)
				continue
			}
			providers = append(providers, NewHuggingFaceProvider(pc.Name, pc.APIKey, pc.BaseURL, pc.Model))
		case "ollama":
			providers = append(providers, NewOllamaProvider(pc.Name, pc.BaseURL, pc.Model))
		default:
			log.Warnf("未知的提供商类型 '%s' (name=%s)，跳过", pc.Type, pc.Name)
			continue
		}
		log.Infof("provider %s (%s) 已就绪", pc.Name, pc.Type)
	}

	if len(providers) == 0 {
		log.Warnf("没有可用的 AI 提供商，所有生成调用都将使用静态回退内容")
	}
	return providers
}
