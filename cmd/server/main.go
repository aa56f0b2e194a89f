package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/app"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment and config")
	}

	cfg, err := app.LoadConfig("")
	if err != nil {
		logger.Fatal("failed to load configuration", "err", err)
	}

	ctx := context.Background()
	rt, err := app.NewRuntime(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize runtime", "err", err)
	}
	defer rt.Close()

	rag, err := core.Load(ctx, rt.LLM, cfg, rt.Repo)
	if err != nil {
		logger.Fatal("failed to load knowledge graph", "err", err)
	}

	port := cfg.Server.Port
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	r := server.NewServer(rag).SetupRouter()
	logger.Info("starting server", "port", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
