// Package retrieval implements the decompose, retrieve and reflect loop
// that gathers graph facts for a question.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/common"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/index"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

// State is the phase of a single query.
type State string

const (
	StateDecomposed State = "DECOMPOSED"
	StateRetrieving State = "RETRIEVING"
	StateReflecting State = "REFLECTING"
	StateSufficient State = "SUFFICIENT"
	StateDone       State = "DONE"
)

const (
	DefaultMaxIterations    = 5
	DefaultMaxEntities      = 5
	DefaultMaxCommunities   = 2
	DefaultReflectionBudget = 2000

	// candidates considered before kind filtering, as a multiple of top_k
	overFetch = 2

	judgeTemperature = 0.3
)

type Options struct {
	MaxEntities      int
	MaxCommunities   int
	ReflectionBudget int
	DecomposePrompt  string
	ReflectPrompt    string
}

func (o Options) withDefaults() Options {
	if o.MaxEntities <= 0 {
		o.MaxEntities = DefaultMaxEntities
	}
	if o.MaxCommunities <= 0 {
		o.MaxCommunities = DefaultMaxCommunities
	}
	if o.ReflectionBudget <= 0 {
		o.ReflectionBudget = DefaultReflectionBudget
	}
	return o
}

// Agent answers retrieval requests against a read-only graph and community
// list. It keeps no per-query state, so one Agent may serve many sessions.
type Agent struct {
	LLM         llm.LLMClient
	Graph       *graph.Graph
	Communities []model.Community
	Options     Options

	entityNames    []string
	entityIndex    *index.TFIDF
	communityIndex *index.TFIDF
}

func NewAgent(llmClient llm.LLMClient, g *graph.Graph, communities []model.Community, opts Options) *Agent {
	a := &Agent{
		LLM:         llmClient,
		Graph:       g,
		Communities: communities,
		Options:     opts.withDefaults(),
	}

	nodes := g.Nodes()
	texts := make([]string, len(nodes))
	a.entityNames = make([]string, len(nodes))
	for i, n := range nodes {
		a.entityNames[i] = n.Name
		texts[i] = n.Text()
	}
	a.entityIndex = index.Fit(texts)

	ctexts := make([]string, len(communities))
	for i, c := range communities {
		ctexts[i] = c.Text()
	}
	a.communityIndex = index.Fit(ctexts)
	return a
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type rawSubQuery struct {
	Text     string  `json:"text"`
	Type     string  `json:"type"`
	Priority flexInt `json:"priority"`
}

func (r rawSubQuery) toSubQuery() (model.SubQuery, bool) {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return model.SubQuery{}, false
	}
	kind := model.QueryKind(strings.ToLower(strings.TrimSpace(r.Type)))
	if kind == "" {
		kind = model.QueryCharacter
	}
	priority := int(r.Priority)
	if priority <= 0 {
		priority = 1
	}
	return model.SubQuery{Text: text, Kind: kind, Priority: priority}, true
}

type decomposition struct {
	SubQueries []rawSubQuery `json:"subqueries"`
}

type reflection struct {
	IsSufficient *bool        `json:"is_sufficient"`
	MissingInfo  string       `json:"missing_info"`
	NewSubQuery  *rawSubQuery `json:"new_subquery"`
}

// Decompose splits query into sub-queries ordered by ascending priority.
// Any failure, or an empty answer, degrades to the whole query as a single
// character sub-query.
func (a *Agent) Decompose(ctx context.Context, query string) []model.SubQuery {
	fallback := []model.SubQuery{{Text: query, Kind: model.QueryCharacter, Priority: 1}}

	prompt := common.Render(a.Options.DecomposePrompt, DefaultDecomposePrompt, query)
	result, err := common.GenerateJSON[decomposition](ctx, a.LLM, prompt, llm.WithTemperature(judgeTemperature))
	if err != nil {
		logger.Warn("query decomposition failed, using the whole query", "err", err)
		return fallback
	}

	var subqueries []model.SubQuery
	for _, raw := range result.SubQueries {
		sq, ok := raw.toSubQuery()
		if !ok {
			logger.Warn("skipping sub-query without text")
			continue
		}
		subqueries = append(subqueries, sq)
	}
	if len(subqueries) == 0 {
		logger.Warn("query decomposition returned no sub-queries, using the whole query")
		return fallback
	}

	sort.SliceStable(subqueries, func(i, j int) bool {
		return subqueries[i].Priority < subqueries[j].Priority
	})
	logger.Debug("query decomposed", "state", StateDecomposed, "subqueries", len(subqueries))
	return subqueries
}

// SearchEntities ranks every entity against text and returns the names of
// the first topK of the requested kind among the top 2*topK candidates.
// "character" selects characters, "event" everything else; any other kind
// selects nothing.
func (a *Agent) SearchEntities(text string, kind model.QueryKind, topK int) []string {
	if topK <= 0 {
		return nil
	}
	var out []string
	for i, m := range a.entityIndex.Rank(text) {
		if i >= topK*overFetch || len(out) >= topK {
			break
		}
		name := a.entityNames[m.Index]
		e, _ := a.Graph.Node(name)
		switch {
		case kind == model.QueryCharacter && e.IsCharacter():
			out = append(out, name)
		case kind == model.QueryEvent && !e.IsCharacter():
			out = append(out, name)
		}
	}
	return out
}

// SearchCommunities is SearchEntities over community summaries. An
// unrecognized kind accepts any community.
func (a *Agent) SearchCommunities(text string, kind model.QueryKind, topK int) []model.Community {
	if topK <= 0 {
		return nil
	}
	var out []model.Community
	for i, m := range a.communityIndex.Rank(text) {
		if i >= topK*overFetch || len(out) >= topK {
			break
		}
		c := a.Communities[m.Index]
		switch kind {
		case model.QueryCharacter:
			if c.Kind == model.CharacterFocused {
				out = append(out, c)
			}
		case model.QueryEvent:
			if c.Kind == model.EventFocused {
				out = append(out, c)
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// RetrieveEntityInfo returns the entity with one neighbor record per
// adjacent node. ok is false when the entity is absent.
func (a *Agent) RetrieveEntityInfo(name string) (model.EntitySnapshot, bool) {
	e, ok := a.Graph.Node(name)
	if !ok {
		return model.EntitySnapshot{}, false
	}
	neighbors := a.Graph.Neighbors(name)
	if neighbors == nil {
		neighbors = []model.Neighbor{}
	}
	return model.EntitySnapshot{Entity: e, Neighbors: neighbors}, true
}

// RetrieveSubQuery gathers entities and communities for one sub-query. A
// sub-query that matches nothing is marked NotFound instead of failing.
func (a *Agent) RetrieveSubQuery(sq model.SubQuery) model.RetrievedBundle {
	bundle := model.RetrievedBundle{
		SubQuery:    sq.Text,
		Kind:        sq.Kind,
		Entities:    []model.EntitySnapshot{},
		Communities: []model.Community{},
	}
	for _, name := range a.SearchEntities(sq.Text, sq.Kind, a.Options.MaxEntities) {
		if info, ok := a.RetrieveEntityInfo(name); ok {
			bundle.Entities = append(bundle.Entities, info)
		}
	}
	bundle.Communities = append(bundle.Communities, a.SearchCommunities(sq.Text, sq.Kind, a.Options.MaxCommunities)...)

	if bundle.IsEmpty() {
		bundle.NotFound = true
		bundle.Note = model.NotFoundNote
	}
	logger.Debug("retrieved sub-query",
		"subquery", sq.Text, "type", sq.Kind, "entities", len(bundle.Entities), "communities", len(bundle.Communities))
	return bundle
}

// Reflect asks whether bundles answer query. It fails open: errors,
// malformed answers and "insufficient" without a usable follow-up all
// count as sufficient.
func (a *Agent) Reflect(ctx context.Context, query string, bundles []model.RetrievedBundle) (bool, *model.SubQuery) {
	info := common.Truncate(EncodeBundles(bundles), a.Options.ReflectionBudget)
	prompt := common.Render(a.Options.ReflectPrompt, DefaultReflectPrompt, query, info)

	result, err := common.GenerateJSON[reflection](ctx, a.LLM, prompt, llm.WithTemperature(judgeTemperature))
	if err != nil {
		logger.Warn("reflection failed, assuming sufficient", "err", err)
		return true, nil
	}
	if result.IsSufficient == nil || *result.IsSufficient {
		return true, nil
	}
	if result.NewSubQuery != nil {
		if sq, ok := result.NewSubQuery.toSubQuery(); ok {
			logger.Debug("reflection asked for more", "missing", result.MissingInfo, "subquery", sq.Text)
			return false, &sq
		}
	}
	return true, nil
}

// Retrieve decomposes query and runs the reflection loop.
func (a *Agent) Retrieve(ctx context.Context, query string, maxIterations int) []model.RetrievedBundle {
	return a.Iterate(ctx, query, nil, a.Decompose(ctx, query), maxIterations)
}

// Iterate retrieves every pending sub-query after the seed bundles, then
// reflects up to maxIterations times, retrieving one follow-up sub-query
// per insufficient round.
func (a *Agent) Iterate(ctx context.Context, query string, seed []model.RetrievedBundle, pending []model.SubQuery, maxIterations int) []model.RetrievedBundle {
	bundles := append([]model.RetrievedBundle(nil), seed...)

	logger.Debug("retrieving", "state", StateRetrieving, "pending", len(pending), "seeded", len(seed))
	for _, sq := range pending {
		bundles = append(bundles, a.RetrieveSubQuery(sq))
	}

	for iteration := 0; iteration < maxIterations; iteration++ {
		logger.Debug("reflecting", "state", StateReflecting, "iteration", iteration+1, "max", maxIterations)
		sufficient, next := a.Reflect(ctx, query, bundles)
		if sufficient {
			logger.Debug("information sufficient", "state", StateSufficient)
			break
		}
		logger.Debug("retrieving follow-up", "state", StateRetrieving, "subquery", next.Text)
		bundles = append(bundles, a.RetrieveSubQuery(*next))
	}

	logger.Debug("retrieval finished", "state", StateDone, "bundles", len(bundles))
	return bundles
}

// EncodeBundles renders bundles as indented JSON without HTML escaping.
func EncodeBundles(bundles []model.RetrievedBundle) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundles); err != nil {
		return "[]"
	}
	return strings.TrimSpace(buf.String())
}
