package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// Backoff returns how long to wait before retry number attempt (1-based).
type Backoff func(attempt int) time.Duration

// ExponentialBackoff waits base, 2*base, 4*base, ... capped at max.
func ExponentialBackoff(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if base <= 0 || attempt < 1 {
			return 0
		}
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if max > 0 && d >= max {
				return max
			}
		}
		if max > 0 && d > max {
			return max
		}
		return d
	}
}

// NoBackoff retries immediately.
func NoBackoff(int) time.Duration { return 0 }

// RetryClient retries failed generations a fixed number of times.
type RetryClient struct {
	Client      LLMClient
	MaxAttempts int
	Backoff     Backoff
}

func NewRetryClient(client LLMClient, maxAttempts int, backoff Backoff) *RetryClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff == nil {
		backoff = NoBackoff
	}
	return &RetryClient{
		Client:      client,
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
	}
}

func (r *RetryClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		out, err := r.Client.Generate(ctx, prompt, opts...)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", fmt.Errorf("generation cancelled after attempt %d: %w", attempt, ctx.Err())
		}
		if attempt == r.MaxAttempts {
			break
		}

		wait := r.Backoff(attempt)
		logger.Warn("generation failed, retrying",
			"attempt", attempt, "max_attempts", r.MaxAttempts, "wait", wait, "err", err)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("generation cancelled during backoff: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", r.MaxAttempts, lastErr)
}

// Close releases the wrapped client when it holds resources.
func (r *RetryClient) Close() error {
	if c, ok := r.Client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
