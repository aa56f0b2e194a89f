package driver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// relationshipNamespace scopes the deterministic ids given to exported
// relationships so re-exports update edges in place.
var relationshipNamespace = uuid.MustParse("6f1c1b7e-3a1d-4a53-9a52-0d6f0c1e8b21")

// GraphDriver is what the exporter needs from a Cypher endpoint.
// MemgraphDriver is the production implementation.
type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}

var _ GraphDriver = (*MemgraphDriver)(nil)

// ExportStats counts what one export wrote.
type ExportStats struct {
	Entities      int
	Characters    int
	Relationships int
	Communities   int
}

// Exporter mirrors a built graph and its communities into a graph database.
type Exporter struct {
	Driver GraphDriver
	// Clear drops previously exported nodes first.
	Clear bool
}

func NewExporter(d GraphDriver) *Exporter {
	return &Exporter{Driver: d, Clear: true}
}

// RelationshipID is stable for the i-th edge between the same endpoints.
func RelationshipID(r model.Relationship, i int) string {
	return uuid.NewSHA1(relationshipNamespace, []byte(r.Source+"\x00"+r.Target+"\x00"+strconv.Itoa(i))).String()
}

func (x *Exporter) Export(ctx context.Context, g *graph.Graph, communities []model.Community) (ExportStats, error) {
	var stats ExportStats

	if err := x.Driver.BuildIndices(ctx); err != nil {
		return stats, err
	}
	if x.Clear {
		if _, err := x.Driver.ExecuteQuery(ctx, ClearGraphQuery, nil); err != nil {
			return stats, fmt.Errorf("failed to clear graph: %w", err)
		}
	}

	nodes := g.Nodes()
	entities := make([]map[string]interface{}, len(nodes))
	var characters []interface{}
	for i, n := range nodes {
		exemplars := make([]interface{}, len(n.StyleExemplars))
		for j, ex := range n.StyleExemplars {
			exemplars[j] = ex
		}
		entities[i] = map[string]interface{}{
			"name":              n.Name,
			"type":              string(n.Kind),
			"persona":           n.Persona,
			"style_description": n.StyleDescription,
			"style_exemplars":   exemplars,
			"avatar_detail":     n.AvatarDetail,
			"description":       n.Description,
			"stub":              n.Stub,
		}
		if n.IsCharacter() {
			characters = append(characters, n.Name)
		}
	}
	if _, err := x.Driver.ExecuteQuery(ctx, SaveEntitiesQuery, map[string]interface{}{"entities": toList(entities)}); err != nil {
		return stats, fmt.Errorf("failed to save entities: %w", err)
	}
	stats.Entities = len(entities)

	if len(characters) > 0 {
		if _, err := x.Driver.ExecuteQuery(ctx, MarkCharactersQuery, map[string]interface{}{"names": characters}); err != nil {
			return stats, fmt.Errorf("failed to label characters: %w", err)
		}
	}
	stats.Characters = len(characters)

	seen := make(map[[2]string]int)
	edges := g.Edges()
	rels := make([]map[string]interface{}, len(edges))
	for i, r := range edges {
		pair := [2]string{r.Source, r.Target}
		var attitude interface{}
		if r.Attitude != nil {
			attitude = *r.Attitude
		}
		rels[i] = map[string]interface{}{
			"uuid":        RelationshipID(r, seen[pair]),
			"source":      r.Source,
			"target":      r.Target,
			"description": r.Description,
			"attitude":    attitude,
			"strength":    r.Strength,
		}
		seen[pair]++
	}
	if len(rels) > 0 {
		if _, err := x.Driver.ExecuteQuery(ctx, SaveRelationshipsQuery, map[string]interface{}{"relationships": toList(rels)}); err != nil {
			return stats, fmt.Errorf("failed to save relationships: %w", err)
		}
	}
	stats.Relationships = len(rels)

	comms := make([]map[string]interface{}, len(communities))
	for i, c := range communities {
		members := make([]interface{}, len(c.Members))
		for j, m := range c.Members {
			members[j] = m
		}
		comms[i] = map[string]interface{}{
			"id":      c.ID,
			"type":    string(c.Kind),
			"size":    int64(c.Size),
			"summary": c.Summary,
			"members": members,
		}
	}
	if len(comms) > 0 {
		if _, err := x.Driver.ExecuteQuery(ctx, SaveCommunitiesQuery, map[string]interface{}{"communities": toList(comms)}); err != nil {
			return stats, fmt.Errorf("failed to save communities: %w", err)
		}
	}
	stats.Communities = len(comms)

	logger.Info("exported graph",
		"entities", stats.Entities, "characters", stats.Characters,
		"relationships", stats.Relationships, "communities", stats.Communities)
	return stats, nil
}

func toList(rows []map[string]interface{}) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
