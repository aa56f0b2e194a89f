package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/index"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
)

// matrix returns a SimilarityFunc that ignores the texts.
func matrix(m [][]float64) SimilarityFunc {
	return func([]string) [][]float64 { return m }
}

func TestAliceAliciaMerge(t *testing.T) {
	entities := []model.Entity{
		model.NewCharacter("Alice", "A hero", ""),
		model.NewCharacter("Alicia", "A heroine", ""),
	}
	d := NewDeduplicator(0.85)
	d.Similarity = matrix([][]float64{{1, 0.9}, {0.9, 1}})

	groups := d.FindDuplicates(entities)
	require.Equal(t, []model.DuplicateGroup{{Canonical: "Alice", Duplicates: []string{"Alicia"}}}, groups)

	merged, _, err := d.Merge(entities, nil, groups)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "Alice", merged[0].Name)
	assert.Equal(t, "A heroine", merged[0].Persona)
}

func TestGreedyGroupingIsNotTransitive(t *testing.T) {
	// A~B, B~C, but A !~ C: C stays separate because B is already taken.
	entities := []model.Entity{
		model.NewNonCharacter("A", ""),
		model.NewNonCharacter("B", ""),
		model.NewNonCharacter("C", ""),
	}
	d := NewDeduplicator(0.85)
	d.Similarity = matrix([][]float64{
		{1, 0.9, 0.1},
		{0.9, 1, 0.9},
		{0.1, 0.9, 1},
	})

	groups := d.FindDuplicates(entities)
	require.Len(t, groups, 1)
	assert.Equal(t, "A", groups[0].Canonical)
	assert.Equal(t, []string{"B"}, groups[0].Duplicates)
}

func TestAnchorCollectsAllSimilar(t *testing.T) {
	entities := []model.Entity{
		model.NewNonCharacter("A", "short"),
		model.NewNonCharacter("B", "the longest description"),
		model.NewNonCharacter("C", "medium text"),
	}
	d := NewDeduplicator(0.85)
	d.Similarity = matrix([][]float64{
		{1, 0.9, 0.86},
		{0.9, 1, 0.2},
		{0.86, 0.2, 1},
	})
	rels := []model.Relationship{
		{Source: "B", Target: "C", Description: "becomes self loop"},
		{Source: "C", Target: "D", Description: "kept"},
		{Source: "A", Target: "A", Description: "already a loop"},
	}

	merged, outRels, groups, err := d.Run(entities, rels)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"B", "C"}, groups[0].Duplicates)

	require.Len(t, merged, 1)
	assert.Equal(t, "the longest description", merged[0].Description)

	require.Len(t, outRels, 1)
	assert.Equal(t, "A", outRels[0].Source)
	assert.Equal(t, "D", outRels[0].Target)
	for _, r := range outRels {
		assert.NotEqual(t, r.Source, r.Target)
	}
	// input untouched
	assert.Equal(t, "B", rels[0].Source)
}

func TestDeduplicationIsIdempotent(t *testing.T) {
	entities := []model.Entity{
		model.NewNonCharacter("Jade Chamber", "floating palace of the Tianquan"),
		model.NewNonCharacter("Jade Chamber", "floating palace of the Tianquan"),
		model.NewNonCharacter("Wangshu Inn", "an inn by the lake"),
		model.NewCharacter("Qiqi", "a zombie herb gatherer", "slow and forgetful"),
	}
	// names must be unique for Merge; rename the second copy
	entities[1].Name = "Jade  Chamber"

	d := NewDeduplicator(0.85)
	merged, _, groups, err := d.Run(entities, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, merged, 3)

	again, _, groups2, err := d.Run(merged, nil)
	require.NoError(t, err)
	assert.Empty(t, groups2)
	assert.Equal(t, merged, again)

	sim := index.CosineMatrix(func() []string {
		var texts []string
		for _, e := range merged {
			texts = append(texts, e.Text())
		}
		return texts
	}())
	for i := range sim {
		for j := range sim {
			if i != j {
				assert.Less(t, sim[i][j], 0.85)
			}
		}
	}
}

func TestMergeRejectsUnknownNames(t *testing.T) {
	d := NewDeduplicator(0.85)
	_, _, err := d.Merge([]model.Entity{model.NewNonCharacter("A", "")}, nil,
		[]model.DuplicateGroup{{Canonical: "A", Duplicates: []string{"Z"}}})
	assert.Error(t, err)

	_, _, err = d.Merge([]model.Entity{model.NewNonCharacter("A", "")}, nil,
		[]model.DuplicateGroup{{Canonical: "Q", Duplicates: []string{"A"}}})
	assert.Error(t, err)
}

func TestFindDuplicatesSmallInput(t *testing.T) {
	d := NewDeduplicator(0)
	assert.Equal(t, DefaultThreshold, d.Threshold)
	assert.Nil(t, d.FindDuplicates([]model.Entity{model.NewNonCharacter("A", "")}))
}
