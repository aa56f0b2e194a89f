package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/app"
	"github.com/JettyCoffee/PAIMON-RoleRAG/internal/core"
)

var sessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to a character from the built graph",
	Long: `Start an interactive conversation. Memory is stored per session, so the
same --session resumes where it left off. Type "quit" or "exit" to leave,
"history" to see the last turns.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := app.NewRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		rag, err := core.Load(ctx, rt.LLM, cfg, rt.Repo)
		if err != nil {
			return err
		}
		session, err := rag.NewSession(ctx, sessionID)
		if err != nil {
			return err
		}

		fmt.Printf("Session %s. Type \"quit\" to leave.\n", sessionID)
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("\nYou: ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			switch strings.ToLower(line) {
			case "":
				continue
			case "quit", "exit":
				return nil
			case "history":
				fmt.Println(session.RecentContext())
				continue
			}

			ans, err := session.Ask(ctx, line)
			if err != nil {
				return err
			}
			if formatOutput == "json" {
				if err := printJSON(ans); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("\n%s\n", ans.Response)
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVarP(&sessionID, "session", "s", "default", "session id")
	rootCmd.AddCommand(chatCmd)
}
