// Package graph holds the attributed entity multigraph.
package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
)

type edge struct {
	rel      model.Relationship
	from, to int
}

// Graph is an undirected multigraph over entities. Every relationship is
// its own edge, so parallel edges between the same pair are preserved, and
// the recorded direction is kept as an attribute. A Graph is read-only once
// Build returns it.
type Graph struct {
	nodes []model.Entity
	index map[string]int
	edges []edge
	// incident edge ids per node, in edge order
	adj [][]int
}

func newGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

func (g *Graph) addNode(e model.Entity) {
	g.index[e.Name] = len(g.nodes)
	g.nodes = append(g.nodes, e.Clone())
	g.adj = append(g.adj, nil)
}

func (g *Graph) addEdge(r model.Relationship) {
	from, to := g.index[r.Source], g.index[r.Target]
	id := len(g.edges)
	g.edges = append(g.edges, edge{rel: r, from: from, to: to})
	g.adj[from] = append(g.adj[from], id)
	g.adj[to] = append(g.adj[to], id)
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return len(g.edges) }

func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Node returns a copy of the named entity.
func (g *Graph) Node(name string) (model.Entity, bool) {
	i, ok := g.index[name]
	if !ok {
		return model.Entity{}, false
	}
	return g.nodes[i].Clone(), true
}

// Nodes returns every entity in insertion order.
func (g *Graph) Nodes() []model.Entity {
	out := make([]model.Entity, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// NodeNames returns entity names in insertion order.
func (g *Graph) NodeNames() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Name
	}
	return out
}

// Position is the insertion index of name, or -1.
func (g *Graph) Position(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	return -1
}

// Edges returns every relationship in insertion order.
func (g *Graph) Edges() []model.Relationship {
	out := make([]model.Relationship, len(g.edges))
	for i, e := range g.edges {
		out[i] = e.rel
	}
	return out
}

// Degree counts incident edges, parallel edges included.
func (g *Graph) Degree(name string) int {
	i, ok := g.index[name]
	if !ok {
		return 0
	}
	return len(g.adj[i])
}

// Neighbors returns one record per adjacent node in the order the nodes
// were first connected. With parallel edges the strongest one describes
// the neighbor, the earliest winning ties.
func (g *Graph) Neighbors(name string) []model.Neighbor {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	var out []model.Neighbor
	pos := make(map[int]int)
	for _, id := range g.adj[i] {
		e := g.edges[id]
		other := e.to
		if other == i {
			other = e.from
		}
		n := model.Neighbor{
			Name:         g.nodes[other].Name,
			Relationship: e.rel.Description,
			Attitude:     e.rel.Attitude,
			Strength:     e.rel.Strength,
		}
		if p, seen := pos[other]; seen {
			if n.Strength > out[p].Strength {
				out[p] = n
			}
			continue
		}
		pos[other] = len(out)
		out = append(out, n)
	}
	return out
}

// EdgesWithin returns relationships with both endpoints in members, in
// edge order.
func (g *Graph) EdgesWithin(members []string) []model.Relationship {
	in := make(map[int]struct{}, len(members))
	for _, m := range members {
		if i, ok := g.index[m]; ok {
			in[i] = struct{}{}
		}
	}
	var out []model.Relationship
	for _, e := range g.edges {
		_, a := in[e.from]
		_, b := in[e.to]
		if a && b {
			out = append(out, e.rel)
		}
	}
	return out
}

// Weighted returns a simple weighted view for gonum algorithms. Node IDs
// are insertion positions and each weight is the number of parallel edges
// between the pair.
func (g *Graph) Weighted() *simple.WeightedUndirectedGraph {
	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for i := range g.nodes {
		wg.AddNode(simple.Node(int64(i)))
	}
	weights := make(map[[2]int]float64)
	var keys [][2]int
	for _, e := range g.edges {
		a, b := e.from, e.to
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		k := [2]int{a, b}
		if _, ok := weights[k]; !ok {
			keys = append(keys, k)
		}
		weights[k]++
	}
	for _, k := range keys {
		wg.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(int64(k[0])),
			T: simple.Node(int64(k[1])),
			W: weights[k],
		})
	}
	return wg
}

// Stats are observability counters for a built graph.
type Stats struct {
	TotalNodes          int     `json:"total_nodes"`
	CharacterNodes      int     `json:"character_nodes"`
	NonCharacterNodes   int     `json:"non_character_nodes"`
	TotalEdges          int     `json:"total_edges"`
	AverageDegree       float64 `json:"average_degree"`
	ConnectedComponents int     `json:"connected_components"`
}

func (g *Graph) Stats() Stats {
	s := Stats{
		TotalNodes: len(g.nodes),
		TotalEdges: len(g.edges),
	}
	for _, n := range g.nodes {
		if n.IsCharacter() {
			s.CharacterNodes++
		}
	}
	s.NonCharacterNodes = s.TotalNodes - s.CharacterNodes
	if s.TotalNodes > 0 {
		s.AverageDegree = 2 * float64(s.TotalEdges) / float64(s.TotalNodes)
		s.ConnectedComponents = len(topo.ConnectedComponents(g.Weighted()))
	}
	return s
}

// NamesAt maps gonum node IDs back to names, sorted by position.
func (g *Graph) NamesAt(ids []int64) []string {
	pos := make([]int, len(ids))
	for i, id := range ids {
		pos[i] = int(id)
	}
	sort.Ints(pos)
	out := make([]string, len(pos))
	for i, p := range pos {
		out[i] = g.nodes[p].Name
	}
	return out
}
