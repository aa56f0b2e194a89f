// Package app assembles the runtime shared by the command line tools and
// the HTTP server.
package app

import (
	"context"
	"fmt"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/config"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/llm"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/storage"
)

// LoadConfig reads the config file named by CONFIG_PATH (or the default
// location), applies environment overrides, validates it and sets up
// logging.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	logger.Init(logger.Options{Level: cfg.Log.Level})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "path", path, "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return cfg, nil
}

// Runtime bundles the generation client and the output repository.
type Runtime struct {
	Config *config.Config
	LLM    llm.LLMClient
	Repo   *storage.Repository
}

func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	store, codec, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return &Runtime{Config: cfg, LLM: client, Repo: storage.NewRepository(store, codec)}, nil
}

func (r *Runtime) Close() error {
	if c, ok := r.LLM.(interface{ Close() error }); ok {
		c.Close()
	}
	return r.Repo.Close()
}
