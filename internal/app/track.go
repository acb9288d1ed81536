package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/output"
	"github.com/romuloroldao/precivox/internal/store"
	"github.com/romuloroldao/precivox/internal/suggest"
)

var (
	trackCompare int
	trackHistory int
	trackRemote  string
)

var trackCmd = &cobra.Command{
	Use:   "track FILE",
	Short: "Record an analysis and compare it with earlier runs",
	Long: `Analyze a shopping list, store the result in the local history
database, and compare it against an earlier run of the same list.

Use --compare N to compare against the Nth previous run (default: 1, the
run just before this one). Use --history N to list the last N runs of the
list without recording a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().IntVar(&trackCompare, "compare", 1, "Compare against the Nth previous run")
	trackCmd.Flags().IntVar(&trackHistory, "history", 0, "Show the last N runs instead of recording")
	trackCmd.Flags().StringVar(&trackRemote, "remote", "", "Analysis service URL (overrides remote.url)")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	if trackCompare < 1 {
		return fmt.Errorf("--compare must be at least 1, got %d", trackCompare)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sl, err := list.Load(args[0])
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if trackHistory > 0 {
		runs, err := db.GetRecentRuns(sl.Name, trackHistory)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		if flagJSON {
			return writeJSON(runs)
		}
		renderHistory(sl.Name, runs)
		return nil
	}

	engine := suggest.NewEngine(cfg.Analysis)
	res := analyzeItems(cmd.Context(), engine, newAdvisor(cfg, engine, trackRemote), sl.Items)

	runID, err := db.RecordRun(sl.Name, "track", appVersion, res)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	current, err := db.GetRun(runID)
	if err != nil {
		return fmt.Errorf("loading current run: %w", err)
	}

	// trackCompare=1 means the immediate predecessor (offset 2 from newest).
	previous, err := db.GetRunN(sl.Name, trackCompare+1)
	if err != nil {
		return fmt.Errorf("loading previous run: %w", err)
	}

	var diff *store.RunDiff
	if previous != nil {
		diff = store.CompareRuns(previous, current)
	}

	if flagJSON {
		result := map[string]any{
			"run": current,
		}
		if diff != nil {
			result["diff"] = diff
		}
		return writeJSON(result)
	}

	renderTrackOutput(current, diff)
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTrackOutput(current *store.Run, diff *store.RunDiff) {
	fmt.Println(output.Section("Track: " + current.ListName))
	fmt.Println()
	fmt.Printf(" Run #%d recorded at %s\n\n", current.ID, current.TakenAt.Local().Format("2006-01-02 15:04:05"))

	if diff == nil {
		fmt.Println(" First run recorded for this list. Run 'precivox track' again later to see trends.")
		fmt.Println()
		return
	}

	fmt.Printf(" Comparing against run #%d (%s)\n\n",
		diff.Previous.ID, diff.Previous.TakenAt.Local().Format("2006-01-02 15:04:05"))

	tbl := output.NewTable("Metric", "Previous", "Current", "Delta", "Trend")
	for _, d := range diff.Deltas {
		tbl.AddRow(
			d.Name,
			fmt.Sprintf("%.2f", d.Previous),
			fmt.Sprintf("%.2f", d.Current),
			fmt.Sprintf("%+.2f", d.Delta),
			output.TrendArrow(d.Delta, store.MetricHigherIsBetter[d.Name]),
		)
	}
	tbl.Print()
	fmt.Println()
}

func renderHistory(listName string, runs []store.Run) {
	fmt.Println(output.Section("History: " + listName))
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println(" No runs recorded for this list yet.")
		fmt.Println()
		return
	}

	tbl := output.NewTable("Run", "Taken", "Total", "Stores", "Efficiency", "Suggestions", "Potential")
	for _, r := range runs {
		tbl.AddRow(
			fmt.Sprintf("#%d", r.ID),
			r.TakenAt.Local().Format("2006-01-02 15:04"),
			output.Money(r.TotalValue),
			fmt.Sprintf("%d", r.TotalStores),
			fmt.Sprintf("%.0f", r.EfficiencyScore),
			fmt.Sprintf("%d", r.SuggestionCount),
			output.Money(r.PotentialSavings),
		)
	}
	tbl.Print()
	fmt.Println()
}
