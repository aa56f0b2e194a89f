package commands

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/app"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/config"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/logger"
)

var (
	configPath   string
	verbose      bool
	formatOutput string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rolegraph",
	Short: "Build a role-playing knowledge graph and chat with its characters",
	Long: `rolegraph builds a character knowledge graph with communities offline and
answers questions in character from it.

Commands:
  build   Deduplicate entities, build the graph and detect communities
  chat    Interactive in-character conversation
  stats   Print statistics of the built graph

Examples:
  rolegraph build --input data
  rolegraph build --input data --chunks data/text_chunks.json --export
  rolegraph chat --session alice-fan
  rolegraph stats --format json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// a missing .env is fine
		_ = godotenv.Load()
		c, err := app.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose {
			c.Log.Level = "debug"
			logger.Init(logger.Options{Level: c.Log.Level})
		}
		cfg = c
		return nil
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or config/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "text", "output format: text, json")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
