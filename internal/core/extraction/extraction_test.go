package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
)

func TestExtract(t *testing.T) {
	mockJSON := "```json\n" + `{
		"entities": [
			{"name": "Qiqi", "type": "character", "persona": "a zombie", "style_description": "slow", "style_exemplars": ["I am Qiqi."]},
			{"name": "Bubu Pharmacy", "type": "non-character", "description": "a pharmacy"}
		],
		"relations": [
			{"source": "Qiqi", "target": "Bubu Pharmacy", "description": "works at", "attitude": "content", "strength": 8}
		]
	}` + "\n```"

	mock := &MockLLMClient{Responses: []string{mockJSON}}
	extractor := NewExtractor(mock, "", 0.3)

	result, err := extractor.Extract(context.Background(), model.TextChunk{Avatar: "Qiqi", Text: "Qiqi works at Bubu Pharmacy."})
	require.NoError(t, err)
	assert.Len(t, result.Entities, 2)
	assert.Len(t, result.Relations, 1)
	assert.Contains(t, mock.Prompts[0], "Qiqi works at Bubu Pharmacy.")
	assert.Contains(t, mock.Prompts[0], "valid JSON only")
}

func TestExtractAllMergesAndFilters(t *testing.T) {
	mock := &MockLLMClient{Responses: []string{
		`{"entities":[{"name":"Qiqi","type":"character","persona":"a zombie","style_exemplars":["a"]}],
		  "relations":[{"source":"Qiqi","target":"Baizhu","description":"fears","strength":2},
		               {"source":"Qiqi","target":"Baizhu","description":"trusts","strength":9}]}`,
		"this is not json",
		`{"entities":[{"name":"Qiqi","type":"character","persona":"a forgetful zombie","style_exemplars":["b"]},
		              {"name":"Baizhu","type":"character","persona":"a doctor"}],
		  "relations":[{"source":"","target":"Baizhu","description":"broken"}]}`,
	}}
	extractor := NewExtractor(mock, "", 0.3)

	chunks := []model.TextChunk{
		{Avatar: "Qiqi", Text: "one"},
		{Avatar: "Qiqi", Text: "two"},
		{Avatar: "Qiqi", Text: "   "},
		{Avatar: "Qiqi", Text: "three"},
	}
	entities, rels := extractor.ExtractAll(context.Background(), chunks)

	require.Len(t, entities, 2)
	assert.Equal(t, "Qiqi", entities[0].Name)
	assert.Equal(t, "a forgetful zombie", entities[0].Persona)
	assert.Equal(t, []string{"a", "b"}, entities[0].StyleExemplars)

	require.Len(t, rels, 1)
	assert.Equal(t, "trusts", rels[0].Description)
	assert.Equal(t, 0.9, rels[0].Strength)

	// the blank chunk never reaches the model
	assert.Len(t, mock.Prompts, 3)
}

func TestExtractPropagatesGenerationError(t *testing.T) {
	extractor := NewExtractor(&MockLLMClient{Err: errors.New("down")}, "", 0)
	_, err := extractor.Extract(context.Background(), model.TextChunk{Text: "x"})
	assert.Error(t, err)
}
