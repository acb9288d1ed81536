package app

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/romuloroldao/precivox/internal/mcp"
	"github.com/romuloroldao/precivox/internal/suggest"
)

var mcpRemote string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server for assistants",
	Long: `Start a Model Context Protocol stdio server so an assistant can analyze
shopping lists and manage applied suggestions. The server exposes:

  analyze_list            Analyze a list (inline items or a file path)
  toggle_suggestion       Apply or revert one suggestion
  apply_all_suggestions   Apply every suggestion
  revert_suggestions      Revert all applied suggestions
  remove_suggestion       Un-apply one suggestion
  applied_state           Applied ids, savings and stats
  optimized_list          The list with applied suggestions carried out

Example MCP configuration:
  {"mcpServers":{"precivox":{"command":"precivox","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpRemote, "remote", "", "Analysis service URL (overrides remote.url)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine := suggest.NewEngine(cfg.Analysis)
	srv := mcp.NewServer(engine, mcp.Options{
		Version: appVersion,
		Advisor: newAdvisor(cfg, engine, mcpRemote),
		Logger:  slog.Default(),
	})
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}
