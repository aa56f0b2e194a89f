// Package community partitions the entity graph, classifies each cluster
// and attaches a generated summary.
package community

import (
	"errors"
	"fmt"
	"sort"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
)

// ErrUnknownAlgorithm is returned for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown community detection algorithm")

const (
	AlgorithmLouvain          = "louvain"
	AlgorithmLabelPropagation = "label_propagation"
	AlgorithmGreedyModularity = "greedy_modularity"
)

// Detector partitions every node of a graph into disjoint member sets.
// Results are normalized: members in node order, communities ordered by
// their earliest member.
type Detector interface {
	Detect(g *graph.Graph) ([][]string, error)
}

// Options selects and tunes a Detector.
type Options struct {
	Algorithm     string
	Resolution    float64
	Seed          uint64
	MaxIterations int
}

// NewDetector returns the detector named by opts.Algorithm. An empty name
// selects louvain.
func NewDetector(opts Options) (Detector, error) {
	if opts.Resolution <= 0 {
		opts.Resolution = 1
	}
	switch opts.Algorithm {
	case AlgorithmLouvain, "":
		return &LouvainDetector{Resolution: opts.Resolution, Seed: opts.Seed}, nil
	case AlgorithmLabelPropagation:
		d := NewLabelPropagationDetector()
		if opts.MaxIterations > 0 {
			d.MaxIterations = opts.MaxIterations
		}
		return d, nil
	case AlgorithmGreedyModularity:
		return &GreedyModularityDetector{Resolution: opts.Resolution}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, opts.Algorithm)
	}
}

// normalize turns groups of node positions into ordered name lists.
func normalize(g *graph.Graph, groups [][]int) [][]string {
	var cleaned [][]int
	for _, grp := range groups {
		if len(grp) == 0 {
			continue
		}
		sorted := append([]int(nil), grp...)
		sort.Ints(sorted)
		cleaned = append(cleaned, sorted)
	}
	sort.Slice(cleaned, func(i, j int) bool {
		return cleaned[i][0] < cleaned[j][0]
	})

	names := g.NodeNames()
	out := make([][]string, len(cleaned))
	for i, grp := range cleaned {
		members := make([]string, len(grp))
		for j, p := range grp {
			members[j] = names[p]
		}
		out[i] = members
	}
	return out
}

// singletons places every node in its own community.
func singletons(n int) [][]int {
	out := make([][]int, n)
	for i := range out {
		out[i] = []int{i}
	}
	return out
}
