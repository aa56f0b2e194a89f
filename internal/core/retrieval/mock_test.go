package retrieval

import (
	"context"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
)

// MockLLM pops one queued response per call and repeats Response once the
// queue is drained.
type MockLLM struct {
	Response      string
	ResponseQueue []string
	Err           error
	Prompts       []string
	Options       []llm.GenerateOptions
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, llm.Defaults{}.Resolve(opts...))
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}
