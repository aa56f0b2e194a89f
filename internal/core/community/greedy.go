package community

import (
	"sort"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
)

// GreedyModularityDetector is the agglomerative Clauset-Newman-Moore
// method: starting from singletons it repeatedly joins the pair of
// connected communities with the largest modularity gain, stopping when no
// join improves modularity.
type GreedyModularityDetector struct {
	Resolution float64
}

func (d *GreedyModularityDetector) Detect(g *graph.Graph) ([][]string, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, nil
	}
	resolution := d.Resolution
	if resolution <= 0 {
		resolution = 1
	}

	// w[i][j]: total edge weight between communities i and j
	w := make(map[int]map[int]float64, n)
	deg := make([]float64, n)
	members := make(map[int][]int, n)
	for i := 0; i < n; i++ {
		w[i] = make(map[int]float64)
		members[i] = []int{i}
	}
	var total float64
	for _, r := range g.Edges() {
		u, v := g.Position(r.Source), g.Position(r.Target)
		if u < 0 || v < 0 || u == v {
			continue
		}
		w[u][v]++
		w[v][u]++
		deg[u]++
		deg[v]++
		total++
	}
	if total == 0 {
		return normalize(g, singletons(n)), nil
	}

	twoM := 2 * total
	a := make(map[int]float64, n)
	for i := 0; i < n; i++ {
		a[i] = deg[i] / twoM
	}

	for {
		ids := make([]int, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		bestI, bestJ, bestGain := -1, -1, 0.0
		for _, i := range ids {
			nbrs := make([]int, 0, len(w[i]))
			for j := range w[i] {
				if j > i {
					nbrs = append(nbrs, j)
				}
			}
			sort.Ints(nbrs)
			for _, j := range nbrs {
				gain := 2 * (w[i][j]/twoM - resolution*a[i]*a[j])
				if gain > bestGain {
					bestI, bestJ, bestGain = i, j, gain
				}
			}
		}
		if bestI < 0 {
			break
		}
		join(w, a, members, bestI, bestJ)
	}

	groups := make([][]int, 0, len(members))
	for _, m := range members {
		groups = append(groups, m)
	}
	return normalize(g, groups), nil
}

// join folds community j into i.
func join(w map[int]map[int]float64, a map[int]float64, members map[int][]int, i, j int) {
	for k, wk := range w[j] {
		if k == i {
			continue
		}
		w[i][k] += wk
		w[k][i] += wk
		delete(w[k], j)
	}
	delete(w[i], j)
	delete(w, j)

	a[i] += a[j]
	delete(a, j)

	members[i] = append(members[i], members[j]...)
	delete(members, j)
}
