package response

import (
	"context"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
)

type MockLLM struct {
	Response string
	Err      error
	Prompts  []string
	Options  []llm.GenerateOptions
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, llm.Defaults{}.Resolve(opts...))
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
