package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/graph"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/memory"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

const (
	KeyGraph         = "graph"
	KeyEntities      = "entities"
	KeyRelationships = "relationships"
	KeyCommunities   = "communities"
	KeyStats         = "stats"
	KeyChunks        = "text_chunks"
	memoryPrefix     = "memory/"
)

// MemoryKey is the blob key of a session's conversation memory.
func MemoryKey(session string) string {
	return memoryPrefix + session
}

// GraphDocument is the node-link form of a graph.
type GraphDocument struct {
	Directed   bool                 `json:"directed"`
	Multigraph bool                 `json:"multigraph"`
	Nodes      []model.Entity       `json:"nodes"`
	Links      []model.Relationship `json:"links"`
}

// EntitiesDocument lists entities split by kind.
type EntitiesDocument struct {
	Characters    []model.Entity `json:"characters"`
	NonCharacters []model.Entity `json:"non_characters"`
}

func (d EntitiesDocument) All() []model.Entity {
	out := make([]model.Entity, 0, len(d.Characters)+len(d.NonCharacters))
	out = append(out, d.Characters...)
	return append(out, d.NonCharacters...)
}

// Repository reads and writes typed documents through a BlobStore.
type Repository struct {
	Store BlobStore
	Codec Codec
}

func NewRepository(store BlobStore, codec Codec) *Repository {
	return &Repository{Store: store, Codec: codec}
}

func (r *Repository) put(ctx context.Context, key string, v any) error {
	data, err := r.Codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.Store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	logger.Debug("saved blob", "key", key, "bytes", len(data))
	return nil
}

func (r *Repository) get(ctx context.Context, key string, v any) error {
	data, err := r.Store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := r.Codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// SaveGraph writes the node-link graph plus the entity, relationship and
// stats companions.
func (r *Repository) SaveGraph(ctx context.Context, g *graph.Graph) error {
	nodes := g.Nodes()
	links := g.Edges()
	if nodes == nil {
		nodes = []model.Entity{}
	}
	if links == nil {
		links = []model.Relationship{}
	}
	doc := GraphDocument{Directed: false, Multigraph: true, Nodes: nodes, Links: links}
	if err := r.put(ctx, KeyGraph, doc); err != nil {
		return err
	}

	ents := EntitiesDocument{Characters: []model.Entity{}, NonCharacters: []model.Entity{}}
	for _, n := range nodes {
		if n.IsCharacter() {
			ents.Characters = append(ents.Characters, n)
		} else {
			ents.NonCharacters = append(ents.NonCharacters, n)
		}
	}
	if err := r.put(ctx, KeyEntities, ents); err != nil {
		return err
	}
	if err := r.put(ctx, KeyRelationships, links); err != nil {
		return err
	}
	return r.put(ctx, KeyStats, g.Stats())
}

// LoadGraph rebuilds the graph from its node-link document.
func (r *Repository) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	var doc GraphDocument
	if err := r.get(ctx, KeyGraph, &doc); err != nil {
		return nil, err
	}
	return graph.Build(doc.Nodes, doc.Links), nil
}

func (r *Repository) LoadStats(ctx context.Context) (graph.Stats, error) {
	var s graph.Stats
	err := r.get(ctx, KeyStats, &s)
	return s, err
}

func (r *Repository) SaveCommunities(ctx context.Context, communities []model.Community) error {
	if communities == nil {
		communities = []model.Community{}
	}
	return r.put(ctx, KeyCommunities, communities)
}

func (r *Repository) LoadCommunities(ctx context.Context) ([]model.Community, error) {
	var out []model.Community
	err := r.get(ctx, KeyCommunities, &out)
	return out, err
}

// LoadEntities reads an entities document in either the split form or as
// a flat list.
func (r *Repository) LoadEntities(ctx context.Context) ([]model.Entity, error) {
	data, err := r.Store.Get(ctx, KeyEntities)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KeyEntities, err)
	}
	var doc EntitiesDocument
	if err := r.Codec.Unmarshal(data, &doc); err == nil {
		return doc.All(), nil
	}
	var flat []model.Entity
	if err := r.Codec.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", KeyEntities, err)
	}
	return flat, nil
}

func (r *Repository) SaveEntities(ctx context.Context, entities []model.Entity) error {
	ents := EntitiesDocument{Characters: []model.Entity{}, NonCharacters: []model.Entity{}}
	for _, e := range entities {
		if e.IsCharacter() {
			ents.Characters = append(ents.Characters, e)
		} else {
			ents.NonCharacters = append(ents.NonCharacters, e)
		}
	}
	return r.put(ctx, KeyEntities, ents)
}

func (r *Repository) LoadRelationships(ctx context.Context) ([]model.Relationship, error) {
	var out []model.Relationship
	err := r.get(ctx, KeyRelationships, &out)
	return out, err
}

func (r *Repository) SaveRelationships(ctx context.Context, rels []model.Relationship) error {
	if rels == nil {
		rels = []model.Relationship{}
	}
	return r.put(ctx, KeyRelationships, rels)
}

func (r *Repository) LoadChunks(ctx context.Context) ([]model.TextChunk, error) {
	var out []model.TextChunk
	err := r.get(ctx, KeyChunks, &out)
	return out, err
}

// LoadChunksFile reads a chunk listing from a JSON file anywhere on disk.
func LoadChunksFile(ctx context.Context, path string) ([]model.TextChunk, error) {
	ext := filepath.Ext(path)
	repo := NewRepository(NewFileStore(filepath.Dir(path), ext), JSONCodec{})
	var out []model.TextChunk
	err := repo.get(ctx, strings.TrimSuffix(filepath.Base(path), ext), &out)
	return out, err
}

// LoadMemory returns the stored snapshot of session. ok is false when none
// exists.
func (r *Repository) LoadMemory(ctx context.Context, session string) (snap memory.Snapshot, ok bool, err error) {
	err = r.get(ctx, MemoryKey(session), &snap)
	if errors.Is(err, ErrNotFound) {
		return memory.Snapshot{}, false, nil
	}
	if err != nil {
		return memory.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (r *Repository) SaveMemory(ctx context.Context, session string, snap memory.Snapshot) error {
	return r.put(ctx, MemoryKey(session), snap)
}

func (r *Repository) DeleteMemory(ctx context.Context, session string) error {
	return r.Store.Delete(ctx, MemoryKey(session))
}

// Sessions lists every session with stored memory.
func (r *Repository) Sessions(ctx context.Context) ([]string, error) {
	keys, err := r.Store.List(ctx, memoryPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k[len(memoryPrefix):]
	}
	return out, nil
}

func (r *Repository) Close() error {
	return r.Store.Close()
}
