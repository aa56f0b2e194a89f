package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/config"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/community"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/dedupe"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/extraction"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/store"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/summary"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/driver"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/storage"
)

// ErrNoInput is returned when a build finds neither entity listings nor
// text chunks to extract from.
var ErrNoInput = errors.New("no entities, relationships or text chunks to build from")

type BuildOptions struct {
	// Extract runs entity and relationship extraction over text chunks.
	Extract bool
	// Chunks overrides the text_chunks input when set.
	Chunks []model.TextChunk
}

// BuildResult summarizes one offline build.
type BuildResult struct {
	Graph       *graph.Graph
	Communities []model.Community
	Merged      []model.DuplicateGroup
	Stats       graph.Stats
}

// Pipeline builds the knowledge graph and its communities offline.
type Pipeline struct {
	LLM    llm.LLMClient
	Config *config.Config
	Input  *storage.Repository
	Output *storage.Repository
	// Exporter is optional; when set the result is mirrored after saving.
	Exporter *driver.Exporter
}

func NewPipeline(llmClient llm.LLMClient, cfg *config.Config, input, output *storage.Repository) *Pipeline {
	return &Pipeline{LLM: llmClient, Config: cfg, Input: input, Output: output}
}

func (p *Pipeline) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	entities, relationships, err := p.loadInputs(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded build inputs", "entities", len(entities), "relationships", len(relationships))

	d := dedupe.NewDeduplicator(p.Config.Dedupe.Threshold)
	entities, relationships, groups, err := d.Run(entities, relationships)
	if err != nil {
		return nil, fmt.Errorf("deduplication failed: %w", err)
	}

	g := graph.Build(entities, relationships)

	detector, err := community.NewDetector(community.Options{
		Algorithm:     p.Config.Community.Algorithm,
		Resolution:    p.Config.Community.Resolution,
		Seed:          p.Config.Community.Seed,
		MaxIterations: p.Config.Community.MaxIterations,
	})
	if err != nil {
		return nil, err
	}
	summarizer := summary.NewSummarizer(p.LLM, p.Config.Prompts.CommunitySummary)
	communities, err := community.NewEngine(g, detector, summarizer).Run(ctx, p.Config.Community.MinSize)
	if err != nil {
		return nil, fmt.Errorf("community detection failed: %w", err)
	}

	if err := p.Output.SaveGraph(ctx, g); err != nil {
		return nil, err
	}
	if err := p.Output.SaveCommunities(ctx, communities); err != nil {
		return nil, err
	}

	if p.Exporter != nil {
		if _, err := p.Exporter.Export(ctx, g, communities); err != nil {
			return nil, fmt.Errorf("export failed: %w", err)
		}
	}

	res := &BuildResult{Graph: g, Communities: communities, Merged: groups, Stats: g.Stats()}
	logger.Info("build complete",
		"nodes", res.Stats.TotalNodes, "edges", res.Stats.TotalEdges,
		"merged_groups", len(groups), "communities", len(communities))
	return res, nil
}

// loadInputs reads the entity and relationship listings and, when asked,
// adds whatever extraction finds in the text chunks. Entities sharing a name
// are merged before deduplication sees them.
func (p *Pipeline) loadInputs(ctx context.Context, opts BuildOptions) ([]model.Entity, []model.Relationship, error) {
	entities, err := p.Input.LoadEntities(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}
	relationships, err := p.Input.LoadRelationships(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}

	s := store.FromEntities(entities)
	if opts.Extract {
		chunks := opts.Chunks
		if chunks == nil {
			if chunks, err = p.Input.LoadChunks(ctx); err != nil {
				return nil, nil, err
			}
		}
		ex := extraction.NewExtractor(p.LLM, p.Config.Prompts.Extraction, p.Config.Extraction.MinStrength)
		extracted, rels := ex.ExtractAll(ctx, chunks)
		for _, e := range extracted {
			s.Add(e)
		}
		relationships = append(relationships, rels...)
	}
	entities = s.Entities()

	if len(entities) == 0 && len(relationships) == 0 {
		return nil, nil, ErrNoInput
	}
	return entities, relationships, nil
}
