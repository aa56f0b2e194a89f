// Package response turns retrieved bundles into an in-character answer and
// condenses each answered turn into a summary.
package response

import (
	"context"
	"fmt"
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/common"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

const (
	DefaultRole        = "the character"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024

	// Apology is answered when generation fails.
	Apology = "I... I can't quite find the words right now. Ask me again in a moment?"

	summaryTemperature = 0.5
	summaryMaxTokens   = 300
	fallbackSummaryLen = 200
)

type Options struct {
	Role           string
	Temperature    float64
	MaxTokens      int
	ResponsePrompt string
	SummaryPrompt  string
}

type Generator struct {
	LLM     llm.LLMClient
	Options Options
}

func NewGenerator(llmClient llm.LLMClient, opts Options) *Generator {
	if opts.Role == "" {
		opts.Role = DefaultRole
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Generator{LLM: llmClient, Options: opts}
}

// Respond answers query in character from bundles.
func (g *Generator) Respond(ctx context.Context, query string, bundles []model.RetrievedBundle) string {
	prompt := common.Render(g.Options.ResponsePrompt, DefaultResponsePrompt,
		g.Options.Role, RenderContext(bundles), g.Options.Role, query)

	out, err := g.LLM.Generate(ctx, prompt,
		llm.WithTemperature(g.Options.Temperature), llm.WithMaxTokens(g.Options.MaxTokens))
	if err == nil {
		out = strings.TrimSpace(out)
	}
	if err != nil || out == "" {
		logger.Warn("response generation failed", "err", err)
		return Apology
	}
	return out
}

// Summarize condenses one turn. On failure it falls back to the raw
// question and answer, truncated.
func (g *Generator) Summarize(ctx context.Context, query, response string) string {
	prompt := common.Render(g.Options.SummaryPrompt, DefaultSummaryPrompt, query, response)

	out, err := g.LLM.Generate(ctx, prompt,
		llm.WithTemperature(summaryTemperature), llm.WithMaxTokens(summaryMaxTokens))
	if err == nil {
		out = strings.TrimSpace(out)
	}
	if err != nil || out == "" {
		logger.Warn("turn summary failed", "err", err)
		return common.Truncate(fmt.Sprintf("Q: %s A: %s", query, response), fallbackSummaryLen)
	}
	return out
}

// RenderContext lays bundles out as plain text for the response prompt.
func RenderContext(bundles []model.RetrievedBundle) string {
	if len(bundles) == 0 {
		return model.NotFoundNote
	}
	var sb strings.Builder
	for i, b := range bundles {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## %s (%s)\n", b.SubQuery, b.Kind)
		if b.NotFound || b.IsEmpty() {
			sb.WriteString(model.NotFoundNote + "\n")
			continue
		}
		for _, e := range b.Entities {
			writeEntity(&sb, e)
		}
		for _, c := range b.Communities {
			fmt.Fprintf(&sb, "Group %s (%s): %s\n", c.ID, c.Kind, c.Summary)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeEntity(sb *strings.Builder, e model.EntitySnapshot) {
	fmt.Fprintf(sb, "- %s [%s]\n", e.Name, e.Kind)
	if e.IsCharacter() {
		if e.Persona != "" {
			fmt.Fprintf(sb, "  Persona: %s\n", e.Persona)
		}
		if e.StyleDescription != "" {
			fmt.Fprintf(sb, "  Speaking style: %s\n", e.StyleDescription)
		}
		for _, ex := range e.StyleExemplars {
			fmt.Fprintf(sb, "  Example line: %s\n", ex)
		}
	} else if e.Description != "" {
		fmt.Fprintf(sb, "  Description: %s\n", e.Description)
	}
	for _, n := range e.Neighbors {
		fmt.Fprintf(sb, "  Related to %s: %s", n.Name, n.Relationship)
		if n.Attitude != nil && *n.Attitude != "" {
			fmt.Fprintf(sb, " (attitude: %s)", *n.Attitude)
		}
		fmt.Fprintf(sb, " [strength %.2f]\n", n.Strength)
	}
}
