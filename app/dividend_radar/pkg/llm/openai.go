package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Generator eino ChatModel 中用到的部分
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type openAICompleter struct {
	gen         Generator
	temperature float32
	maxTokens   int
}

func (o *openAICompleter) complete(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.User, Content: prompt},
	}
	resp, err := o.gen.Generate(ctx, messages,
		model.WithTemperature(o.temperature),
		model.WithMaxTokens(o.maxTokens),
	)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	return resp.Content, nil
}

// NewOpenAI 基于 eino 的 OpenAI 兼容客户端
func NewOpenAI(ctx context.Context, baseURL, apiKey, modelName string, temperature float32, maxTokens int, opts Options) (Client, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return NewFromGenerator("openai", chatModel, temperature, maxTokens, opts), nil
}

// NewFromGenerator 使用任意 Generator 构造客户端
func NewFromGenerator(provider string, gen Generator, temperature float32, maxTokens int, opts Options) Client {
	return newRetrying(provider, &openAICompleter{gen: gen, temperature: temperature, maxTokens: maxTokens}, opts)
}
