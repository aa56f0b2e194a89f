package core

import (
	"context"
	"strings"
	"sync"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
)

// MockLLM answers by the first route whose marker occurs in the prompt.
// Each route pops from its queue and repeats its last entry once drained.
type MockLLM struct {
	mu      sync.Mutex
	Routes  []*Route
	Default string
	Prompts []string
}

type Route struct {
	Marker    string
	Responses []string
	Calls     int
}

func (m *MockLLM) On(marker string, responses ...string) *Route {
	r := &Route{Marker: marker, Responses: responses}
	m.Routes = append(m.Routes, r)
	return r
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	for _, r := range m.Routes {
		if !strings.Contains(prompt, r.Marker) {
			continue
		}
		r.Calls++
		if len(r.Responses) == 0 {
			return m.Default, nil
		}
		resp := r.Responses[0]
		if len(r.Responses) > 1 {
			r.Responses = r.Responses[1:]
		}
		return resp, nil
	}
	return m.Default, nil
}

const (
	markDecompose = "Break the user's question into sub-queries"
	markReflect   = "judge whether retrieved information"
	markCallback  = "refers back to earlier turns"
	markCache     = "judge whether cached information"
	markRespond   = "You are playing the role of"
	markSummary   = "Summarize this conversation turn"
	markCommunity = "You are a knowledge graph analyst"
	markExtract   = "expert knowledge graph builder"
)
