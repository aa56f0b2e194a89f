// Package summary writes natural-language summaries of graph communities.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/common"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// MaxPromptItems bounds how many members and relationships go into a
// summary prompt.
const MaxPromptItems = 20

const (
	summaryTemperature = 0.5
	summaryMaxTokens   = 500
)

// DefaultCommunityPrompt takes the community type, member lines and
// relationship lines.
const DefaultCommunityPrompt = `You are a knowledge graph analyst. Write a concise summary (200-300 words) of the community below.

Community type: %s

Member entities:
%s

Relationships inside the community:
%s

Cover the main theme of the community, its key entities and their roles, and the most important relationships between them.
Return only the summary text.`

type Summarizer struct {
	LLM    llm.LLMClient
	Prompt string
}

func NewSummarizer(llmClient llm.LLMClient, prompt string) *Summarizer {
	return &Summarizer{
		LLM:    llmClient,
		Prompt: prompt,
	}
}

// Fallback is the templated summary used when generation fails.
func Fallback(size int) string {
	return fmt.Sprintf("Community of %d entities.", size)
}

// SummarizeCommunity never fails; generation errors and empty answers
// degrade to Fallback.
func (s *Summarizer) SummarizeCommunity(ctx context.Context, g *graph.Graph, members []string, kind model.CommunityKind) string {
	prompt := s.buildPrompt(g, members, kind)

	response, err := s.LLM.Generate(ctx, prompt,
		llm.WithTemperature(summaryTemperature), llm.WithMaxTokens(summaryMaxTokens))
	if err != nil {
		logger.Warn("community summary generation failed, using fallback", "size", len(members), "err", err)
		return Fallback(len(members))
	}
	response = strings.TrimSpace(response)
	if response == "" {
		logger.Warn("empty community summary, using fallback", "size", len(members))
		return Fallback(len(members))
	}
	return response
}

func (s *Summarizer) buildPrompt(g *graph.Graph, members []string, kind model.CommunityKind) string {
	var entities []string
	for _, name := range members {
		if len(entities) == MaxPromptItems {
			break
		}
		e, ok := g.Node(name)
		if !ok {
			continue
		}
		if e.IsCharacter() {
			entities = append(entities, fmt.Sprintf("- %s (character): %s", e.Name, e.Persona))
		} else {
			entities = append(entities, fmt.Sprintf("- %s (non-character): %s", e.Name, e.Description))
		}
	}

	var rels []string
	for _, r := range g.EdgesWithin(members) {
		if len(rels) == MaxPromptItems {
			break
		}
		rels = append(rels, fmt.Sprintf("- %s -> %s: %s", r.Source, r.Target, r.Description))
	}

	return common.Render(s.Prompt, DefaultCommunityPrompt,
		kind, strings.Join(entities, "\n"), strings.Join(rels, "\n"))
}
