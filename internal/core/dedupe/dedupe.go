// Package dedupe folds near-duplicate entities into a canonical record.
package dedupe

import (
	"fmt"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/index"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// DefaultThreshold is the similarity at or above which two entities are
// the same.
const DefaultThreshold = 0.85

// SimilarityFunc returns the symmetric pairwise similarity of texts.
type SimilarityFunc func(texts []string) [][]float64

type Deduplicator struct {
	Threshold  float64
	Similarity SimilarityFunc
}

func NewDeduplicator(threshold float64) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{
		Threshold:  threshold,
		Similarity: index.CosineMatrix,
	}
}

// FindDuplicates groups entities in a single greedy pass. Each unprocessed
// entity, in order, becomes the canonical anchor for every unprocessed
// entity whose similarity to it meets the threshold. Grouping is not
// transitive: two members of different groups may still be similar.
func (d *Deduplicator) FindDuplicates(entities []model.Entity) []model.DuplicateGroup {
	if len(entities) < 2 {
		return nil
	}

	texts := make([]string, len(entities))
	for i, e := range entities {
		texts[i] = e.Text()
	}
	sim := d.Similarity(texts)

	var groups []model.DuplicateGroup
	processed := make([]bool, len(entities))
	for i := range entities {
		if processed[i] {
			continue
		}
		processed[i] = true

		var dups []string
		for j := range entities {
			if processed[j] || sim[i][j] < d.Threshold {
				continue
			}
			processed[j] = true
			dups = append(dups, entities[j].Name)
		}
		if len(dups) > 0 {
			groups = append(groups, model.DuplicateGroup{
				Canonical:  entities[i].Name,
				Duplicates: dups,
			})
		}
	}
	return groups
}

// Merge folds every duplicate into its canonical entity, removes the
// duplicates and rewrites relationship endpoints. Entity order is kept.
func (d *Deduplicator) Merge(entities []model.Entity, relationships []model.Relationship, groups []model.DuplicateGroup) ([]model.Entity, []model.Relationship, error) {
	byName := make(map[string]int, len(entities))
	for i, e := range entities {
		if _, dup := byName[e.Name]; dup {
			return nil, nil, fmt.Errorf("duplicate entity name %q before merge", e.Name)
		}
		byName[e.Name] = i
	}

	merged := make([]model.Entity, len(entities))
	for i, e := range entities {
		merged[i] = e.Clone()
	}

	canonicalOf := make(map[string]string)
	for _, g := range groups {
		ci, ok := byName[g.Canonical]
		if !ok {
			return nil, nil, fmt.Errorf("canonical entity %q not found", g.Canonical)
		}
		for _, dup := range g.Duplicates {
			di, ok := byName[dup]
			if !ok {
				return nil, nil, fmt.Errorf("duplicate entity %q not found", dup)
			}
			if dup == g.Canonical {
				continue
			}
			if prev, seen := canonicalOf[dup]; seen {
				return nil, nil, fmt.Errorf("entity %q is a duplicate of both %q and %q", dup, prev, g.Canonical)
			}
			merged[ci].Merge(entities[di])
			canonicalOf[dup] = g.Canonical
		}
	}

	out := make([]model.Entity, 0, len(merged))
	for _, e := range merged {
		if _, removed := canonicalOf[e.Name]; removed {
			continue
		}
		out = append(out, e)
	}

	rels := RemapRelationships(relationships, canonicalOf)
	logger.Info("merged duplicate entities",
		"groups", len(groups), "removed", len(canonicalOf), "entities", len(out), "relationships", len(rels))
	return out, rels, nil
}

// Run finds and merges duplicates in one call.
func (d *Deduplicator) Run(entities []model.Entity, relationships []model.Relationship) ([]model.Entity, []model.Relationship, []model.DuplicateGroup, error) {
	groups := d.FindDuplicates(entities)
	logger.Info("found duplicate groups", "groups", len(groups), "threshold", d.Threshold)
	if len(groups) == 0 {
		return entities, DropSelfLoops(relationships), nil, nil
	}
	ents, rels, err := d.Merge(entities, relationships, groups)
	if err != nil {
		return nil, nil, nil, err
	}
	return ents, rels, groups, nil
}
