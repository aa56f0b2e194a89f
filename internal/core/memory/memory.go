// Package memory keeps the turns of one conversation and a cache of the
// bundles retrieved for earlier sub-queries.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/common"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

const (
	DefaultHistoryLimit = 5
	DefaultCacheBudget  = 1000
	DefaultMaxCacheSize = 20
	DefaultRecentTurns  = 3

	judgeTemperature = 0.3
)

type Options struct {
	HistoryLimit   int
	CacheBudget    int
	CallbackPrompt string
	CachePrompt    string
}

// Memory is owned by a single session and is not safe for concurrent use.
type Memory struct {
	LLM     llm.LLMClient
	Options Options

	turns []model.ConversationTurn
	cache *Cache
}

func New(llmClient llm.LLMClient, opts Options) *Memory {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.CacheBudget <= 0 {
		opts.CacheBudget = DefaultCacheBudget
	}
	return &Memory{LLM: llmClient, Options: opts, cache: NewCache()}
}

// Turns returns a copy of every recorded turn, oldest first.
func (m *Memory) Turns() []model.ConversationTurn {
	return append([]model.ConversationTurn(nil), m.turns...)
}

func (m *Memory) Cache() *Cache { return m.cache }

func (m *Memory) recent(k int) []model.ConversationTurn {
	if k <= 0 || len(m.turns) <= k {
		return m.turns
	}
	return m.turns[len(m.turns)-k:]
}

type callbackVerdict struct {
	NeedsCallback bool      `json:"needs_callback"`
	Indices       []float64 `json:"related_turn_indices"`
	Reason        string    `json:"reason"`
}

// DetectCallback asks whether query refers to one of the recent turns.
// Indices are positions within the recent window. Without any turns no
// generation call is made.
func (m *Memory) DetectCallback(ctx context.Context, query string) (bool, []int) {
	window := m.recent(m.Options.HistoryLimit)
	if len(window) == 0 {
		return false, nil
	}

	lines := make([]string, len(window))
	for i, t := range window {
		lines[i] = fmt.Sprintf("Turn %d: %s", i, t.Summary)
	}
	prompt := common.Render(m.Options.CallbackPrompt, DefaultCallbackPrompt, strings.Join(lines, "\n"), query)

	verdict, err := common.GenerateJSON[callbackVerdict](ctx, m.LLM, prompt, llm.WithTemperature(judgeTemperature))
	if err != nil {
		logger.Warn("callback detection failed", "err", err)
		return false, nil
	}
	if !verdict.NeedsCallback {
		return false, nil
	}
	indices := make([]int, 0, len(verdict.Indices))
	for _, f := range verdict.Indices {
		indices = append(indices, int(f))
	}
	logger.Debug("callback detected", "indices", indices, "reason", verdict.Reason)
	return true, indices
}

// GetCallbackContext renders the selected recent turns. Out of range
// indices are skipped.
func (m *Memory) GetCallbackContext(indices []int) string {
	window := m.recent(m.Options.HistoryLimit)
	var parts []string
	for _, i := range indices {
		if i < 0 || i >= len(window) {
			continue
		}
		t := window[i]
		parts = append(parts, fmt.Sprintf("[Earlier conversation]\nQ: %s\nA: %s", t.Query, t.Response))
	}
	return strings.Join(parts, "\n\n")
}

// RecentContext renders the last k turns as question and answer pairs.
func (m *Memory) RecentContext(k int) string {
	var parts []string
	for _, t := range m.recent(k) {
		parts = append(parts, fmt.Sprintf("Q: %s\nA: %s", t.Query, t.Response))
	}
	return strings.Join(parts, "\n\n")
}

type cacheVerdict struct {
	IsSufficient bool   `json:"is_sufficient"`
	Reason       string `json:"reason"`
}

// CheckCache decides whether cached bundles can answer subquery. An exact
// key hit is the only candidate when present; otherwise the bundles of the
// recent turns are offered. Failures count as a miss.
func (m *Memory) CheckCache(ctx context.Context, subquery string) (bool, []model.RetrievedBundle) {
	if m.cache.Len() == 0 {
		return false, nil
	}

	var candidates []model.RetrievedBundle
	if b, ok := m.cache.Get(subquery); ok {
		candidates = []model.RetrievedBundle{b}
	} else {
		for _, t := range m.recent(m.Options.HistoryLimit) {
			candidates = append(candidates, t.RetrievedContext...)
		}
	}
	if len(candidates) == 0 {
		return false, nil
	}

	info := common.Truncate(compactJSON(candidates), m.Options.CacheBudget)
	prompt := common.Render(m.Options.CachePrompt, DefaultCachePrompt, subquery, info)

	verdict, err := common.GenerateJSON[cacheVerdict](ctx, m.LLM, prompt, llm.WithTemperature(judgeTemperature))
	if err != nil {
		logger.Warn("cache check failed", "subquery", subquery, "err", err)
		return false, nil
	}
	if !verdict.IsSufficient {
		return false, nil
	}
	logger.Debug("cache hit", "subquery", subquery, "bundles", len(candidates))
	return true, candidates
}

// AddTurn records a turn and caches every bundle under its sub-query text.
func (m *Memory) AddTurn(query, response, summary string, bundles []model.RetrievedBundle) {
	m.turns = append(m.turns, model.ConversationTurn{
		Query:            query,
		Response:         response,
		Summary:          summary,
		RetrievedContext: append([]model.RetrievedBundle(nil), bundles...),
	})
	for _, b := range bundles {
		if b.SubQuery == "" {
			continue
		}
		m.cache.Put(b.SubQuery, b)
	}
}

// ClearOldCache evicts the oldest cache entries beyond max.
func (m *Memory) ClearOldCache(max int) {
	if n := m.cache.Trim(max); n > 0 {
		logger.Debug("evicted cache entries", "count", n, "remaining", m.cache.Len())
	}
}

// Snapshot is the persisted form of a Memory.
type Snapshot struct {
	Turns []model.ConversationTurn `json:"turns" msgpack:"turns"`
	Cache *Cache                   `json:"cache" msgpack:"cache"`
}

func (m *Memory) Snapshot() Snapshot {
	turns := m.Turns()
	if turns == nil {
		turns = []model.ConversationTurn{}
	}
	return Snapshot{Turns: turns, Cache: m.cache}
}

// Restore replaces the turns and cache with those of s.
func (m *Memory) Restore(s Snapshot) {
	m.turns = append([]model.ConversationTurn(nil), s.Turns...)
	if s.Cache == nil {
		m.cache = NewCache()
		return
	}
	m.cache = s.Cache
}

func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
