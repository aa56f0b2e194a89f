package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
)

func pharmacy() *graph.Graph {
	return graph.Build(
		[]model.Entity{
			model.NewCharacter("Qiqi", "a zombie herb gatherer", ""),
			model.NewCharacter("Baizhu", "owner of Bubu Pharmacy", ""),
			model.NewNonCharacter("Bubu Pharmacy", "a pharmacy in Liyue"),
			model.NewNonCharacter("Outside", "not in the community"),
		},
		[]model.Relationship{
			{Source: "Baizhu", Target: "Qiqi", Description: "employs", Strength: 0.8},
			{Source: "Qiqi", Target: "Bubu Pharmacy", Description: "works at", Strength: 0.6},
			{Source: "Qiqi", Target: "Outside", Description: "should not appear", Strength: 0.1},
		})
}

func TestSummarizeCommunity(t *testing.T) {
	mock := &MockLLMClient{Response: "  The pharmacy crew.  "}
	s := NewSummarizer(mock, "")

	got := s.SummarizeCommunity(context.Background(), pharmacy(),
		[]string{"Qiqi", "Baizhu", "Bubu Pharmacy"}, model.CharacterFocused)

	assert.Equal(t, "The pharmacy crew.", got)
	require.Len(t, mock.Prompts, 1)
	prompt := mock.Prompts[0]
	assert.Contains(t, prompt, "character-focused")
	assert.Contains(t, prompt, "- Qiqi (character): a zombie herb gatherer")
	assert.Contains(t, prompt, "- Bubu Pharmacy (non-character): a pharmacy in Liyue")
	assert.Contains(t, prompt, "- Baizhu -> Qiqi: employs")
	assert.NotContains(t, prompt, "should not appear")

	assert.Equal(t, 0.5, mock.Options[0].Temperature)
	assert.Equal(t, 500, mock.Options[0].MaxTokens)
}

func TestSummarizeCommunityFallsBack(t *testing.T) {
	members := []string{"Qiqi", "Baizhu"}

	s := NewSummarizer(&MockLLMClient{Err: errors.New("quota exceeded")}, "")
	assert.Equal(t, "Community of 2 entities.", s.SummarizeCommunity(context.Background(), pharmacy(), members, model.EventFocused))

	s = NewSummarizer(&MockLLMClient{Response: "   "}, "")
	assert.Equal(t, "Community of 2 entities.", s.SummarizeCommunity(context.Background(), pharmacy(), members, model.EventFocused))
}

func TestPromptIsBounded(t *testing.T) {
	var entities []model.Entity
	var rels []model.Relationship
	var members []string
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("n%02d", i)
		entities = append(entities, model.NewNonCharacter(name, "d"))
		members = append(members, name)
		if i > 0 {
			rels = append(rels, model.Relationship{Source: members[i-1], Target: name, Description: "next"})
		}
	}
	mock := &MockLLMClient{Response: "ok"}
	s := NewSummarizer(mock, "%s|%s|%s")
	s.SummarizeCommunity(context.Background(), graph.Build(entities, rels), members, model.EventFocused)

	parts := strings.Split(mock.Prompts[0], "|")
	require.Len(t, parts, 3)
	assert.Len(t, strings.Split(parts[1], "\n"), MaxPromptItems)
	assert.Len(t, strings.Split(parts[2], "\n"), MaxPromptItems)
	assert.Contains(t, parts[1], "n19")
	assert.NotContains(t, parts[1], "n20")
}
