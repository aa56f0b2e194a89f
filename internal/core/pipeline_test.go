package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core/model"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/storage"
)

func inputRepo(t *testing.T, files map[string]string) *storage.Repository {
	t.Helper()
	store := storage.NewFileStore(t.TempDir(), ".json")
	for key, body := range files {
		require.NoError(t, store.Put(context.Background(), key, []byte(body)))
	}
	return storage.NewRepository(store, storage.JSONCodec{})
}

func TestPipelineBuild(t *testing.T) {
	ctx := context.Background()
	input := inputRepo(t, map[string]string{
		storage.KeyEntities: `{
			"characters": [
				{"name": "Alice", "type": "character", "persona": "A hero"},
				{"name": "Bob", "type": "character", "persona": "A baker in town"}
			],
			"non_characters": [
				{"name": "Castle", "type": "non-character", "description": "stone keep"}
			]
		}`,
		storage.KeyRelationships: `[
			{"source": "Alice", "target": "Castle", "description": "lives in", "strength": 0.8},
			{"source": "Bob", "target": "Alice", "description": "bakes for"},
			{"source": "Alice", "target": "Alice", "description": "self"}
		]`,
	})
	output := storage.NewRepository(storage.NewFileStore(t.TempDir(), ".json"), storage.JSONCodec{})

	mock := &MockLLM{}
	community := mock.On(markCommunity, "A tight group around Alice.")

	res, err := NewPipeline(mock, testConfig(), input, output).Build(ctx, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.TotalNodes)
	assert.Equal(t, 2, res.Stats.TotalEdges)
	assert.Equal(t, 1, res.Stats.ConnectedComponents)
	require.NotEmpty(t, res.Communities)
	assert.Equal(t, "A tight group around Alice.", res.Communities[0].Summary)
	assert.Equal(t, len(res.Communities), community.Calls)

	loaded, err := output.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Graph.Nodes(), loaded.Nodes())

	communities, err := output.LoadCommunities(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Communities, communities)

	rag, err := Load(ctx, mock, testConfig(), output)
	require.NoError(t, err)
	assert.Equal(t, 3, rag.Graph.NodeCount())
	assert.Same(t, output, rag.Repo)
}

func TestPipelineExtractsChunks(t *testing.T) {
	input := inputRepo(t, map[string]string{
		storage.KeyChunks: `[{"avatar": "Alice", "type": "story", "chunk_id": 0, "text": "Alice lives in the castle."}]`,
	})
	output := storage.NewRepository(storage.NewFileStore(t.TempDir(), ".json"), storage.JSONCodec{})

	mock := &MockLLM{Default: "summary"}
	mock.On(markExtract, `{
		"entities": [
			{"name": "Alice", "type": "character", "persona": "A hero"},
			{"name": "Castle", "type": "non-character", "description": "stone keep"}
		],
		"relations": [
			{"source": "Alice", "target": "Castle", "description": "lives in", "attitude": "fond", "strength": 8}
		]
	}`)

	res, err := NewPipeline(mock, testConfig(), input, output).Build(context.Background(), BuildOptions{Extract: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Graph.NodeCount())
	edges := res.Graph.Edges()
	require.Len(t, edges, 1)
	assert.InDelta(t, 0.8, edges[0].Strength, 1e-9)
	assert.Equal(t, "fond", edges[0].AttitudeText())
}

func TestPipelineWithoutInput(t *testing.T) {
	output := storage.NewRepository(storage.NewFileStore(t.TempDir(), ".json"), storage.JSONCodec{})
	_, err := NewPipeline(&MockLLM{}, testConfig(), inputRepo(t, nil), output).Build(context.Background(), BuildOptions{})
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = NewPipeline(&MockLLM{}, testConfig(), inputRepo(t, nil), output).Build(context.Background(), BuildOptions{Extract: true})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBuildResultMergesDuplicates(t *testing.T) {
	input := inputRepo(t, map[string]string{
		storage.KeyEntities: `[
			{"name": "Alice", "type": "character", "persona": "A hero of the castle"},
			{"name": "Alice", "type": "character", "persona": "A hero"}
		]`,
	})
	output := storage.NewRepository(storage.NewFileStore(t.TempDir(), ".json"), storage.JSONCodec{})

	res, err := NewPipeline(&MockLLM{Default: "s"}, testConfig(), input, output).Build(context.Background(), BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Graph.NodeCount())
	alice, _ := res.Graph.Node("Alice")
	assert.Equal(t, "A hero of the castle", alice.Persona)
	assert.Equal(t, model.KindCharacter, alice.Kind)
}
