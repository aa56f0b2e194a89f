package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client   *anthropic.Client
	model    string
	defaults Defaults
}

func NewClaudeClient(apiKey string, model string, baseURL string, defaults Defaults) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return &ClaudeClient{
		client:   anthropic.NewClient(apiKey, opts...),
		model:    model,
		defaults: defaults,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	o := c.defaults.Resolve(opts...)
	maxTokens := o.MaxTokens
	if maxTokens <= 0 {
		// the messages API rejects requests without a token cap
		maxTokens = 1000
	}
	temp := float32(o.Temperature)

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", fmt.Errorf("claude create message: %w", err)
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", ErrNoContent
}
