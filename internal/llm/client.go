package llm

import (
	"context"
	"errors"
)

// ErrNoContent is returned when a provider answers without any text.
var ErrNoContent = errors.New("llm: no response content")

// LLMClient is the text generation collaborator.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
}

// GenerateOptions holds per-request sampling parameters. Zero values mean
// "use the client default".
type GenerateOptions struct {
	Temperature    float64
	HasTemperature bool
	MaxTokens      int
}

// GenerateOption is a functional option for a single Generate call.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
		o.HasTemperature = true
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = n
	}
}

// Defaults are the sampling parameters a client falls back to.
type Defaults struct {
	Temperature float64
	MaxTokens   int
}

// Resolve applies opts over d.
func (d Defaults) Resolve(opts ...GenerateOption) GenerateOptions {
	o := GenerateOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.HasTemperature {
		o.Temperature = d.Temperature
		o.HasTemperature = true
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = d.MaxTokens
	}
	return o
}
