package community

import (
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
)

// LabelPropagationDetector implements community detection using the Label
// Propagation Algorithm. Nodes are visited in insertion order and adopt the
// label carried by the largest edge weight among their neighbors; ties go
// to the largest label so runs are deterministic.
type LabelPropagationDetector struct {
	MaxIterations int
}

func NewLabelPropagationDetector() *LabelPropagationDetector {
	return &LabelPropagationDetector{
		MaxIterations: 20,
	}
}

func (d *LabelPropagationDetector) Detect(g *graph.Graph) ([][]string, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, nil
	}

	// node -> neighbor -> number of parallel edges
	adj := make([]map[int]int, n)
	for i := range adj {
		adj[i] = make(map[int]int)
	}
	for _, r := range g.Edges() {
		u, v := g.Position(r.Source), g.Position(r.Target)
		if u < 0 || v < 0 || u == v {
			continue
		}
		adj[u][v]++
		adj[v][u]++
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	for iter := 0; iter < d.MaxIterations; iter++ {
		changed := 0
		for u := 0; u < n; u++ {
			if len(adj[u]) == 0 {
				continue
			}

			counts := make(map[int]int)
			maxCount := 0
			for v, w := range adj[u] {
				l := labels[v]
				counts[l] += w
				if counts[l] > maxCount {
					maxCount = counts[l]
				}
			}

			best := -1
			for l, c := range counts {
				if c == maxCount && l > best {
					best = l
				}
			}

			if labels[u] != best {
				labels[u] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}

	byLabel := make(map[int][]int)
	var order []int
	for u, l := range labels {
		if _, ok := byLabel[l]; !ok {
			order = append(order, l)
		}
		byLabel[l] = append(byLabel[l], u)
	}
	groups := make([][]int, 0, len(order))
	for _, l := range order {
		groups = append(groups, byLabel[l])
	}
	return normalize(g, groups), nil
}
