package community

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/graph/community"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
)

// LouvainDetector maximizes modularity with the Louvain method. Parallel
// edges count as edge weight. A fixed seed makes runs reproducible.
type LouvainDetector struct {
	Resolution float64
	Seed       uint64
}

func (d *LouvainDetector) Detect(g *graph.Graph) ([][]string, error) {
	if g.NodeCount() == 0 {
		return nil, nil
	}
	if g.EdgeCount() == 0 {
		return normalize(g, singletons(g.NodeCount())), nil
	}

	resolution := d.Resolution
	if resolution <= 0 {
		resolution = 1
	}
	reduced := community.Modularize(g.Weighted(), resolution, rand.NewPCG(d.Seed, d.Seed))

	var groups [][]int
	for _, c := range reduced.Communities() {
		grp := make([]int, len(c))
		for i, n := range c {
			grp[i] = int(n.ID())
		}
		groups = append(groups, grp)
	}
	return normalize(g, groups), nil
}
