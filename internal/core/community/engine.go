package community

import (
	"context"
	"fmt"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// DefaultMinSize drops singletons.
const DefaultMinSize = 2

// Summarizer produces a community summary. Implementations must not fail;
// they degrade to a templated text instead.
type Summarizer interface {
	SummarizeCommunity(ctx context.Context, g *graph.Graph, members []string, kind model.CommunityKind) string
}

type Engine struct {
	Graph      *graph.Graph
	Detector   Detector
	Summarizer Summarizer
}

func NewEngine(g *graph.Graph, detector Detector, summarizer Summarizer) *Engine {
	return &Engine{
		Graph:      g,
		Detector:   detector,
		Summarizer: summarizer,
	}
}

// Classify is character-focused when characters strictly outnumber the
// other members, event-focused otherwise.
func Classify(g *graph.Graph, members []string) model.CommunityKind {
	characters, others := 0, 0
	for _, m := range members {
		if e, ok := g.Node(m); ok && e.IsCharacter() {
			characters++
		} else {
			others++
		}
	}
	if characters > others {
		return model.CharacterFocused
	}
	return model.EventFocused
}

func (e *Engine) Detect() ([][]string, error) {
	communities, err := e.Detector.Detect(e.Graph)
	if err != nil {
		return nil, fmt.Errorf("community detection failed: %w", err)
	}
	logger.Info("detected communities", "count", len(communities))
	return communities, nil
}

// Process classifies and summarizes every community of at least minSize
// members. IDs follow detection order, counting dropped communities too.
func (e *Engine) Process(ctx context.Context, communities [][]string, minSize int) []model.Community {
	if minSize < 1 {
		minSize = DefaultMinSize
	}
	var out []model.Community
	for i, members := range communities {
		if len(members) < minSize {
			continue
		}
		kind := Classify(e.Graph, members)
		c := model.Community{
			ID:      fmt.Sprintf("community_%d", i),
			Members: append([]string(nil), members...),
			Size:    len(members),
			Kind:    kind,
		}
		c.Summary = e.Summarizer.SummarizeCommunity(ctx, e.Graph, c.Members, kind)
		out = append(out, c)
		logger.Debug("processed community", "id", c.ID, "size", c.Size, "type", c.Kind)
	}

	characterFocused := 0
	for _, c := range out {
		if c.Kind == model.CharacterFocused {
			characterFocused++
		}
	}
	logger.Info("processed communities",
		"kept", len(out), "min_size", minSize,
		"character_focused", characterFocused, "event_focused", len(out)-characterFocused)
	return out
}

// Run detects and processes in one call.
func (e *Engine) Run(ctx context.Context, minSize int) ([]model.Community, error) {
	communities, err := e.Detect()
	if err != nil {
		return nil, err
	}
	return e.Process(ctx, communities, minSize), nil
}
