package llm

import (
	"context"
	"fmt"

	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/config"
	"github.com/iWorld-y/dividend_radar/app/dividend_radar/pkg/logger"
)

// 各厂商凭据对应的环境变量
var envKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// NewClient 根据配置创建大模型客户端，未配置凭据时返回 Unconfigured
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	provider := cfg.LLM.Provider
	if provider == "" {
		provider = "openai"
	}
	if cfg.LLM.APIKey == "" {
		logger.Log.Warnf("未配置 %s，LLM 相关节点将使用降级逻辑", envKeys[provider])
		return Unconfigured{Key: envKeys[provider]}, nil
	}

	opts := OptionsFromConfig(cfg)
	l := cfg.LLM
	switch provider {
	case "openai":
		return NewOpenAI(ctx, l.BaseURL, l.APIKey, l.Model, l.Temperature, l.MaxTokens, opts)
	case "anthropic":
		return NewAnthropic(l.BaseURL, l.APIKey, l.Model, l.Temperature, l.MaxTokens, opts), nil
	case "gemini":
		return NewGemini(ctx, l.APIKey, l.Model, l.Temperature, l.MaxTokens, opts)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
