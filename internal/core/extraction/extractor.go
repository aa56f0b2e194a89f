// Package extraction turns pre-chunked text into raw entities and
// relationships.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/common"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/store"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

const extractionTemperature = 0.3

// DefaultPrompt takes the chunk's subject and the chunk text.
const DefaultPrompt = `You are an expert knowledge graph builder for a role-playing system.
Extract entities and relations from the text below. The text is about: %s

1. Entities
   - A character has: "name", "type": "character", "persona" (who they are),
     "style_description" (how they speak: tone, vocabulary, quirks),
     "style_exemplars" (1-2 short quotes from the text, if any).
   - Anything else (location, item, event, organization) has: "name",
     "type": "non-character", "description".
2. Relations
   - "source", "target": entity names.
   - "description": the objective relationship.
   - "attitude": the source's subjective attitude towards the target, or null.
   - "strength": 1-10, how strong or important the relation is.

Return a JSON object with two keys: "entities" (list) and "relations" (list).

Text:
%s`

type Extractor struct {
	LLM         llm.LLMClient
	Prompt      string
	MinStrength float64
}

func NewExtractor(llmClient llm.LLMClient, prompt string, minStrength float64) *Extractor {
	return &Extractor{
		LLM:         llmClient,
		Prompt:      prompt,
		MinStrength: minStrength,
	}
}

// Extract runs the extraction prompt over one chunk.
func (e *Extractor) Extract(ctx context.Context, chunk model.TextChunk) (model.ExtractionResult, error) {
	subject := chunk.Avatar
	if subject == "" {
		subject = "unknown"
	}
	prompt := common.Render(e.Prompt, DefaultPrompt, subject, chunk.Text)

	result, err := common.GenerateJSON[model.ExtractionResult](ctx, e.LLM, prompt,
		llm.WithTemperature(extractionTemperature))
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("failed to extract from chunk %s/%s/%d: %w",
			chunk.Avatar, chunk.Type, chunk.ChunkID, err)
	}
	return result, nil
}

// ExtractAll extracts every chunk and merges repeated names. A failed
// chunk is logged and skipped.
func (e *Extractor) ExtractAll(ctx context.Context, chunks []model.TextChunk) ([]model.Entity, []model.Relationship) {
	entities := store.NewEntityStore()
	var relationships []model.Relationship
	failed := 0

	for i, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		result, err := e.Extract(ctx, chunk)
		if err != nil {
			logger.Warn("chunk extraction failed", "chunk", i, "err", err)
			failed++
			continue
		}
		for _, ent := range result.Entities {
			entities.Add(ent.ToEntity())
		}
		for _, rel := range result.Relations {
			r := rel.ToRelationship()
			if r.Source == "" || r.Target == "" {
				continue
			}
			if r.Strength < e.MinStrength {
				continue
			}
			relationships = append(relationships, r)
		}
		logger.Debug("extracted chunk", "chunk", i, "entities", len(result.Entities), "relations", len(result.Relations))
	}

	logger.Info("extraction finished",
		"chunks", len(chunks), "failed", failed, "entities", entities.Len(), "relationships", len(relationships))
	return entities.Entities(), relationships
}
