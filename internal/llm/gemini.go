package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client   *genai.Client
	model    string
	defaults Defaults
}

func NewGeminiClient(ctx context.Context, apiKey string, model string, defaults Defaults) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{
		client:   client,
		model:    model,
		defaults: defaults,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	o := c.defaults.Resolve(opts...)
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(float32(o.Temperature))
	if o.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(o.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoContent
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoContent
	}
	return sb.String(), nil
}

// Close releases the underlying gRPC connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
