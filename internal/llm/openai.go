package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client   *openai.Client
	model    string
	defaults Defaults
}

func NewOpenAIClient(apiKey string, model string, baseURL string, defaults Defaults) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIClient{
		client:   client,
		model:    model,
		defaults: defaults,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	o := c.defaults.Resolve(opts...)
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: float32(o.Temperature),
		MaxTokens:   o.MaxTokens,
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		return resp.Choices[0].Message.Content, nil
	}
	return "", ErrNoContent
}
