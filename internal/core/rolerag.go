// Package core wires the offline build and the online question answering
// flow together.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/config"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/memory"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/response"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/retrieval"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/storage"
)

var (
	ErrEmptyQuery    = errors.New("query is empty")
	ErrSessionClosed = errors.New("session is closed")
)

// RoleRAG holds what every session shares: the graph, its communities and
// the agent built over them. None of it changes after construction.
type RoleRAG struct {
	LLM         llm.LLMClient
	Config      *config.Config
	Graph       *graph.Graph
	Communities []model.Community
	Agent       *retrieval.Agent
	Responder   *response.Generator
	// Repo persists session memory when set.
	Repo *storage.Repository
}

func New(llmClient llm.LLMClient, cfg *config.Config, g *graph.Graph, communities []model.Community) *RoleRAG {
	agent := retrieval.NewAgent(llmClient, g, communities, retrieval.Options{
		MaxEntities:      cfg.Agent.MaxEntities,
		MaxCommunities:   cfg.Agent.MaxCommunities,
		ReflectionBudget: cfg.Agent.ReflectionBudget,
		DecomposePrompt:  cfg.Prompts.Decompose,
		ReflectPrompt:    cfg.Prompts.Reflect,
	})
	responder := response.NewGenerator(llmClient, response.Options{
		Role:           cfg.Generation.Role,
		Temperature:    cfg.Generation.Temperature,
		MaxTokens:      cfg.Generation.MaxTokens,
		ResponsePrompt: cfg.Prompts.Response,
		SummaryPrompt:  cfg.Prompts.TurnSummary,
	})
	return &RoleRAG{
		LLM:         llmClient,
		Config:      cfg,
		Graph:       g,
		Communities: communities,
		Agent:       agent,
		Responder:   responder,
	}
}

// Load reads a previously built graph and its communities from repo.
func Load(ctx context.Context, llmClient llm.LLMClient, cfg *config.Config, repo *storage.Repository) (*RoleRAG, error) {
	g, err := repo.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph (run the build first): %w", err)
	}
	communities, err := repo.LoadCommunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load communities: %w", err)
	}
	r := New(llmClient, cfg, g, communities)
	r.Repo = repo
	logger.Info("knowledge graph loaded", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "communities", len(communities))
	return r, nil
}

// Session is one conversation. Ask calls are serialized.
type Session struct {
	ID     string
	RAG    *RoleRAG
	Memory *memory.Memory

	mu     sync.Mutex
	closed bool
}

// NewSession starts a conversation, resuming stored memory for id when the
// repository has any.
func (r *RoleRAG) NewSession(ctx context.Context, id string) (*Session, error) {
	mem := memory.New(r.LLM, memory.Options{
		HistoryLimit:   r.Config.Memory.HistoryLimit,
		CacheBudget:    r.Config.Memory.CacheBudget,
		CallbackPrompt: r.Config.Prompts.CallbackDetect,
		CachePrompt:    r.Config.Prompts.CacheCheck,
	})
	if r.Repo != nil {
		snap, ok, err := r.Repo.LoadMemory(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			mem.Restore(snap)
			logger.Info("resumed session", "session", id, "turns", len(snap.Turns))
		}
	}
	return &Session{ID: id, RAG: r, Memory: mem}, nil
}

// Answer is the outcome of one Ask.
type Answer struct {
	Response      string                  `json:"response"`
	Summary       string                  `json:"summary"`
	Bundles       []model.RetrievedBundle `json:"bundles"`
	CallbackTurns []int                   `json:"callback_turns"`
	CacheHits     int                     `json:"cache_hits"`
}

// Ask answers query in character. Generation failures degrade inside each
// step, so the only errors are an empty query, a closed session or a
// cancelled context.
func (s *Session) Ask(ctx context.Context, query string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Answer{}, ErrSessionClosed
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	log := logger.With("session", s.ID)
	r := s.RAG

	ans := Answer{CallbackTurns: []int{}}
	enhanced := query
	if needs, indices := s.Memory.DetectCallback(ctx, query); needs {
		if cb := s.Memory.GetCallbackContext(indices); cb != "" {
			enhanced = cb + "\n\nCurrent question: " + query
			ans.CallbackTurns = indices
		}
	}

	var cached []model.RetrievedBundle
	var pending []model.SubQuery
	seen := make(map[string]struct{})
	for _, sq := range r.Agent.Decompose(ctx, enhanced) {
		ok, hit := s.Memory.CheckCache(ctx, sq.Text)
		if !ok {
			pending = append(pending, sq)
			continue
		}
		ans.CacheHits++
		// several hits can share the recent-window bundles
		for _, b := range hit {
			if _, dup := seen[b.SubQuery]; dup {
				continue
			}
			seen[b.SubQuery] = struct{}{}
			cached = append(cached, b)
		}
	}
	log.Debug("sub-queries planned", "cached", ans.CacheHits, "to_retrieve", len(pending))

	bundles := cached
	if len(pending) > 0 {
		bundles = r.Agent.Iterate(ctx, enhanced, cached, pending, r.Config.Agent.MaxIterations)
	}
	if bundles == nil {
		bundles = []model.RetrievedBundle{}
	}
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	ans.Bundles = bundles
	ans.Response = r.Responder.Respond(ctx, query, bundles)
	ans.Summary = r.Responder.Summarize(ctx, query, ans.Response)

	s.Memory.AddTurn(query, ans.Response, ans.Summary, bundles)
	s.Memory.ClearOldCache(r.Config.Memory.MaxCacheSize)

	if err := s.save(ctx); err != nil {
		log.Error("failed to persist memory", "err", err)
	}
	log.Info("answered", "bundles", len(bundles), "cache_hits", ans.CacheHits, "callback", len(ans.CallbackTurns) > 0)
	return ans, nil
}

// Save writes the session memory when a repository is attached. A closed
// session is not written.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Session) save(ctx context.Context) error {
	if s.closed || s.RAG.Repo == nil {
		return nil
	}
	return s.RAG.Repo.SaveMemory(ctx, s.ID, s.Memory.Snapshot())
}

// Close waits for an in-flight Ask and stops the session from answering or
// saving again.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// TurnCount is the number of answered turns.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Memory.Turns())
}

// RecentContext renders the last few turns for display.
func (s *Session) RecentContext() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Memory.RecentContext(memory.DefaultRecentTurns)
}
