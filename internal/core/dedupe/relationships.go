package dedupe

import "github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"

// RemapRelationships rewrites endpoints through canonicalOf and drops
// relationships that become self-loops. The input is not modified.
func RemapRelationships(relationships []model.Relationship, canonicalOf map[string]string) []model.Relationship {
	out := make([]model.Relationship, 0, len(relationships))
	for _, r := range relationships {
		if c, ok := canonicalOf[r.Source]; ok {
			r.Source = c
		}
		if c, ok := canonicalOf[r.Target]; ok {
			r.Target = c
		}
		if r.IsSelfLoop() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DropSelfLoops removes relationships whose endpoints are equal.
func DropSelfLoops(relationships []model.Relationship) []model.Relationship {
	return RemapRelationships(relationships, nil)
}
