package graph

import (
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// Build assembles entities and relationships into a Graph. Entities sharing
// a name are merged. Relationship endpoints that name no entity are stubbed
// in as non-characters, self-loops are dropped and strengths are clamped to
// [0,1]. Build never fails.
func Build(entities []model.Entity, relationships []model.Relationship) *Graph {
	g := newGraph()
	for _, e := range entities {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			logger.Warn("skipping entity without a name")
			continue
		}
		if i, ok := g.index[e.Name]; ok {
			logger.Warn("duplicate entity name, merging", "name", e.Name)
			g.nodes[i].Merge(e)
			continue
		}
		g.addNode(e)
	}

	var stubbed, loops int
	for _, r := range relationships {
		r.Source = strings.TrimSpace(r.Source)
		r.Target = strings.TrimSpace(r.Target)
		if r.Source == "" || r.Target == "" {
			logger.Warn("skipping relationship with an empty endpoint", "source", r.Source, "target", r.Target)
			continue
		}
		if r.IsSelfLoop() {
			logger.Warn("dropping self-loop", "entity", r.Source)
			loops++
			continue
		}
		for _, name := range []string{r.Source, r.Target} {
			if !g.Has(name) {
				logger.Warn("relationship references a missing entity, adding stub", "name", name)
				g.addNode(model.Entity{Name: name, Kind: model.KindNonCharacter, Stub: true})
				stubbed++
			}
		}
		r.Strength = clamp(r.Strength)
		g.addEdge(r)
	}

	logger.Info("built graph",
		"nodes", g.NodeCount(), "edges", g.EdgeCount(), "stubs", stubbed, "self_loops_dropped", loops)
	return g
}

func clamp(s float64) float64 {
	if s > 1 {
		return model.NormalizeStrength(s)
	}
	if s < 0 {
		return 0
	}
	return s
}
