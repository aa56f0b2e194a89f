package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyClient struct {
	failures int
	calls    int
	opts     []GenerateOptions
}

func (f *flakyClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	f.calls++
	f.opts = append(f.opts, Defaults{}.Resolve(opts...))
	if f.calls <= f.failures {
		return "", errors.New("rate limited")
	}
	return "ok:" + prompt, nil
}

func TestRetryClientSucceedsAfterFailures(t *testing.T) {
	inner := &flakyClient{failures: 2}
	client := NewRetryClient(inner, 3, NoBackoff)

	out, err := client.Generate(context.Background(), "hi", WithTemperature(0.3))
	require.NoError(t, err)
	assert.Equal(t, "ok:hi", out)
	assert.Equal(t, 3, inner.calls)
	for _, o := range inner.opts {
		assert.Equal(t, 0.3, o.Temperature)
	}
}

func TestRetryClientGivesUp(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := NewRetryClient(inner, 3, NoBackoff)

	_, err := client.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, inner.calls)
}

func TestRetryClientStopsOnCancelledContext(t *testing.T) {
	inner := &flakyClient{failures: 10}
	client := NewRetryClient(inner, 5, ExponentialBackoff(time.Hour, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(time.Second, 5*time.Second)
	assert.Equal(t, time.Second, b(1))
	assert.Equal(t, 2*time.Second, b(2))
	assert.Equal(t, 4*time.Second, b(3))
	assert.Equal(t, 5*time.Second, b(4))
	assert.Equal(t, time.Duration(0), ExponentialBackoff(0, time.Second)(3))
}

func TestDefaultsResolve(t *testing.T) {
	d := Defaults{Temperature: 0.7, MaxTokens: 1024}

	o := d.Resolve()
	assert.Equal(t, 0.7, o.Temperature)
	assert.Equal(t, 1024, o.MaxTokens)

	o = d.Resolve(WithTemperature(0), WithMaxTokens(500))
	assert.Equal(t, 0.0, o.Temperature)
	assert.Equal(t, 500, o.MaxTokens)
}
