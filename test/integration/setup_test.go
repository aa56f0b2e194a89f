//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/config"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/storage"
)

// liveConfig loads ../../config/config.toml with environment overrides and
// skips the test when no usable provider is configured.
func liveConfig(t *testing.T) *config.Config {
	t.Helper()
	_ = godotenv.Load("../../.env")

	cfg, err := config.LoadOrDefault("../../config/config.toml")
	require.NoError(t, err)
	cfg.ApplyEnv()
	if os.Getenv("LLM_PROVIDER") == "" && cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
		t.Skip("Skipping integration test: no LLM provider configured")
	}
	cfg.Storage.Dir = t.TempDir()
	require.NoError(t, cfg.Validate())
	return cfg
}

func liveClient(t *testing.T, cfg *config.Config) llm.LLMClient {
	t.Helper()
	client, err := llm.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	return client
}

func fixtureInputs(t *testing.T) *storage.Repository {
	t.Helper()
	store := storage.NewFileStore(t.TempDir(), ".json")
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, storage.KeyEntities, []byte(`{
		"characters": [
			{"name": "Paimon", "type": "character", "persona": "A small floating companion who guides the Traveler and loves food", "style_description": "Cheerful, talks about herself in the third person", "style_exemplars": ["Paimon is not emergency food!"]},
			{"name": "Traveler", "type": "character", "persona": "A wanderer from another world searching for their lost sibling"},
			{"name": "Venti", "type": "character", "persona": "A carefree bard in Mondstadt who is secretly the Anemo Archon"}
		],
		"non_characters": [
			{"name": "Mondstadt", "type": "non-character", "description": "The city of freedom, ruled by the Anemo Archon"},
			{"name": "Statue of the Seven", "type": "non-character", "description": "Statues where travelers commune with the elements"}
		]
	}`)))
	require.NoError(t, store.Put(ctx, storage.KeyRelationships, []byte(`[
		{"source": "Paimon", "target": "Traveler", "description": "travels with", "attitude": "devoted", "strength": 0.9},
		{"source": "Traveler", "target": "Mondstadt", "description": "visits", "strength": 0.6},
		{"source": "Venti", "target": "Mondstadt", "description": "protects", "attitude": "fond", "strength": 0.8},
		{"source": "Traveler", "target": "Statue of the Seven", "description": "communes with", "strength": 0.5},
		{"source": "Paimon", "target": "Venti", "description": "suspects", "attitude": "curious", "strength": 0.4}
	]`)))
	return storage.NewRepository(store, storage.JSONCodec{})
}
