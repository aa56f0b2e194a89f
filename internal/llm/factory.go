package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/config"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// NewClient builds the provider client selected by cfg.LLM and wraps it in
// the retry policy from the same section.
func NewClient(ctx context.Context, cfg *config.Config) (LLMClient, error) {
	provider := strings.ToLower(cfg.LLM.Provider)
	defaults := Defaults{
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
	}

	var base LLMClient
	switch provider {
	case "openai":
		base = NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, defaults)

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model, defaults)
		if err != nil {
			return nil, err
		}
		base = c

	case "claude":
		base = NewClaudeClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, defaults)

	case "ollama":
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		logger.Info("using ollama through the openai-compatible api", "base_url", baseURL)

		// ollama ignores the key but the client config requires one
		apiKey := cfg.LLM.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		base = NewOpenAIClient(apiKey, cfg.LLM.Model, baseURL, defaults)

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}

	backoff := ExponentialBackoff(time.Duration(cfg.LLM.BackoffBase*float64(time.Second)), 30*time.Second)
	return NewRetryClient(base, cfg.LLM.MaxRetries, backoff), nil
}
