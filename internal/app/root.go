// Package app contains the Cobra command tree for precivox.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/romuloroldao/precivox/internal/logging"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "precivox",
	Short: "Shopping-list savings advisor",
	Long: `precivox analyzes grocery shopping lists and recommends concrete ways to
spend less: cheaper stores for the same product, bulk quantities, forgotten
complementary items, and fewer stores to visit.

Suggestions can be applied to a list file, tracked over time, or served to a
frontend over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelFromEnv()
		if flagVerbose {
			level = slog.LevelDebug
		}
		logging.SetupWithLevel(level)

		// Variables already set in the environment win over .env.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("reading .env", "error", err)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("precivox", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  analyze   Analyze lists and show savings suggestions")
		fmt.Println("  apply     Apply suggestions and write the optimized list")
		fmt.Println("  track     Record an analysis and compare with the previous one")
		fmt.Println("  watch     Monitor lists and alert when their savings change")
		fmt.Println("  serve     Run the HTTP API")
		fmt.Println("  mcp       Run the stdio tool server")
		fmt.Println("  doctor    Check configuration, database and remote service")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/precivox/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
