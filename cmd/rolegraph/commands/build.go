package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/app"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/driver"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/storage"
)

var (
	inputDir   string
	chunksPath string
	extract    bool
	export     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the knowledge graph and its communities",
	Long: `Read entities.json and relationships.json from the input directory,
optionally extract more from text chunks, merge duplicate entities, build the
graph, detect and summarize communities, and save everything to the
configured storage.

Examples:
  rolegraph build --input data
  rolegraph build --input data --extract
  rolegraph build --chunks data/text_chunks.json --export`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := app.NewRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		input := storage.NewRepository(storage.NewFileStore(inputDir, ".json"), storage.JSONCodec{})
		p := core.NewPipeline(rt.LLM, cfg, input, rt.Repo)

		opts := core.BuildOptions{Extract: extract || chunksPath != ""}
		if chunksPath != "" {
			if opts.Chunks, err = storage.LoadChunksFile(ctx, chunksPath); err != nil {
				return err
			}
		}

		if export {
			if cfg.Memgraph.URI == "" {
				return errors.New("--export needs [memgraph].uri or MEMGRAPH_URI")
			}
			d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password)
			if err != nil {
				return err
			}
			defer d.Close(ctx)
			p.Exporter = driver.NewExporter(d)
		}

		res, err := p.Build(ctx, opts)
		if err != nil {
			return err
		}

		if formatOutput == "json" {
			return printJSON(map[string]any{
				"stats":         res.Stats,
				"communities":   len(res.Communities),
				"merged_groups": len(res.Merged),
			})
		}
		fmt.Printf("Built graph: %d nodes (%d characters), %d edges, %d components\n",
			res.Stats.TotalNodes, res.Stats.CharacterNodes, res.Stats.TotalEdges, res.Stats.ConnectedComponents)
		fmt.Printf("Merged %d duplicate groups, kept %d communities\n", len(res.Merged), len(res.Communities))
		fmt.Printf("Saved to %s (%s, %s)\n", cfg.Storage.Dir, cfg.Storage.Backend, cfg.Storage.Format)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&inputDir, "input", "i", "data", "directory holding entities.json and relationships.json")
	buildCmd.Flags().StringVar(&chunksPath, "chunks", "", "text chunk file to extract entities from")
	buildCmd.Flags().BoolVar(&extract, "extract", false, "extract from text_chunks.json in the input directory")
	buildCmd.Flags().BoolVar(&export, "export", false, "mirror the result into Memgraph")
	rootCmd.AddCommand(buildCmd)
}
