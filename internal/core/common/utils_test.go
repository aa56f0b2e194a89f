package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
)

type verdict struct {
	IsSufficient bool   `json:"is_sufficient"`
	Reason       string `json:"reason"`
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected verdict
		wantErr  bool
	}{
		{
			name:     "plain",
			input:    `{"is_sufficient": true, "reason": "ok"}`,
			expected: verdict{IsSufficient: true, Reason: "ok"},
		},
		{
			name:     "json fence",
			input:    "Sure!\n```json\n{\"is_sufficient\": false, \"reason\": \"missing\"}\n```\nDone.",
			expected: verdict{Reason: "missing"},
		},
		{
			name:     "bare fence",
			input:    "```\n{\"is_sufficient\": true}\n```",
			expected: verdict{IsSufficient: true},
		},
		{
			name:     "trailing comma repaired",
			input:    `{"is_sufficient": true, "reason": "x",}`,
			expected: verdict{IsSufficient: true, Reason: "x"},
		},
		{
			name:    "no object",
			input:   "I cannot answer that.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON[verdict](tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseJSONNoObjectIsErrNoJSON(t *testing.T) {
	_, err := ParseJSON[verdict]("nothing here")
	assert.ErrorIs(t, err, ErrNoJSON)
}

type stubClient struct {
	response string
	err      error
	prompt   string
}

func (s *stubClient) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func TestGenerateJSON(t *testing.T) {
	client := &stubClient{response: `{"is_sufficient": true}`}
	got, err := GenerateJSON[verdict](context.Background(), client, "judge")
	require.NoError(t, err)
	assert.True(t, got.IsSufficient)
	assert.Contains(t, client.prompt, "valid JSON only")

	client = &stubClient{err: errors.New("boom")}
	_, err = GenerateJSON[verdict](context.Background(), client, "judge")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "七七", Truncate("七七是谁", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestRender(t *testing.T) {
	assert.Equal(t, "default x", Render("", "default %s", "x"))
	assert.Equal(t, "custom x", Render("custom %s", "default %s", "x"))
}
