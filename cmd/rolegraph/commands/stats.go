package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics of the built graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, codec, err := storage.Open(cfg.Storage)
		if err != nil {
			return err
		}
		repo := storage.NewRepository(store, codec)
		defer repo.Close()

		stats, err := repo.LoadStats(ctx)
		if err != nil {
			return err
		}
		communities, err := repo.LoadCommunities(ctx)
		if err != nil {
			return err
		}
		sessions, err := repo.Sessions(ctx)
		if err != nil {
			return err
		}

		if formatOutput == "json" {
			return printJSON(map[string]any{
				"graph":       stats,
				"communities": len(communities),
				"sessions":    sessions,
			})
		}
		fmt.Printf("Nodes:        %d (%d characters, %d other)\n", stats.TotalNodes, stats.CharacterNodes, stats.NonCharacterNodes)
		fmt.Printf("Edges:        %d\n", stats.TotalEdges)
		fmt.Printf("Avg degree:   %.2f\n", stats.AverageDegree)
		fmt.Printf("Components:   %d\n", stats.ConnectedComponents)
		fmt.Printf("Communities:  %d\n", len(communities))
		fmt.Printf("Sessions:     %d\n", len(sessions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
