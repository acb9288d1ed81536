package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/romuloroldao/precivox/internal/config"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/output"
	"github.com/romuloroldao/precivox/internal/remote"
	"github.com/romuloroldao/precivox/internal/staging"
	"github.com/romuloroldao/precivox/internal/suggest"
)

var (
	analyzeStaged  bool
	analyzeNoDelay bool
	analyzeRemote  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Analyze shopping lists and show savings suggestions",
	Long: `Analyze one or more shopping lists (JSON or YAML) and print their
analytics together with ranked savings suggestions. Lists are analyzed
concurrently and reported in argument order.

When stdout is a terminal the analysis is preceded by progress phases;
--staged forces them and --no-delay skips the waiting.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeStaged, "staged", false, "Show analysis phases even when stdout is not a terminal")
	analyzeCmd.Flags().BoolVar(&analyzeNoDelay, "no-delay", false, "Show analysis phases without waiting")
	analyzeCmd.Flags().StringVar(&analyzeRemote, "remote", "", "Analysis service URL (overrides remote.url)")
	rootCmd.AddCommand(analyzeCmd)
}

// listReport is the analysis of one list file.
type listReport struct {
	File   string         `json:"file"`
	Name   string         `json:"name"`
	Result suggest.Result `json:"result"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := suggest.NewEngine(cfg.Analysis)
	advisor := newAdvisor(cfg, engine, analyzeRemote)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	staged := !flagJSON && (analyzeStaged || (cfg.Staging.Enabled && output.IsTerminal(os.Stdout)))

	var reports []listReport
	if staged {
		reports, err = analyzeStagedFiles(ctx, cfg, engine, advisor, args, os.Stdout)
	} else {
		reports, err = analyzeFiles(ctx, engine, advisor, args)
	}
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	for _, r := range reports {
		renderAnalysis(os.Stdout, r)
	}
	return nil
}

// analyzeFiles loads and analyzes every file concurrently. Reports keep the
// order of paths.
func analyzeFiles(ctx context.Context, engine *suggest.Engine, advisor *remote.Advisor, paths []string) ([]listReport, error) {
	reports := make([]listReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			sl, err := list.Load(path)
			if err != nil {
				return err
			}
			reports[i] = listReport{
				File:   path,
				Name:   sl.Name,
				Result: analyzeItems(gctx, engine, advisor, sl.Items),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

type stagedBatch struct {
	reports []listReport
	err     error
}

func analyzeStagedFiles(ctx context.Context, cfg *config.Config, engine *suggest.Engine, advisor *remote.Advisor, paths []string, w io.Writer) ([]listReport, error) {
	phases := stagePhases(cfg, analyzeNoDelay)
	onPhase := func(i int, p staging.Phase) {
		fmt.Fprintln(w, output.PhaseLine(i, len(phases), p.Label))
	}
	batch, err := staging.Run(ctx, phases, onPhase, func() stagedBatch {
		reports, err := analyzeFiles(ctx, engine, advisor, paths)
		return stagedBatch{reports: reports, err: err}
	})
	if err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}
	return batch.reports, batch.err
}

func renderAnalysis(w io.Writer, r listReport) {
	res := r.Result
	a := res.Analytics

	fmt.Fprintln(w, output.Section("Analysis: "+r.Name))
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.KeyValue("Items", fmt.Sprintf("%d", a.TotalItems)))
	fmt.Fprintln(w, output.KeyValue("Stores", fmt.Sprintf("%d", a.TotalStores)))
	fmt.Fprintln(w, output.KeyValue("Total", output.Money(a.TotalValue)))
	fmt.Fprintln(w, output.KeyValue("Average per item", output.Money(a.AveragePricePerItem)))
	if a.PromotionItemCount > 0 {
		fmt.Fprintln(w, output.KeyValue("Promotions", fmt.Sprintf("%d items, %s saved", a.PromotionItemCount, output.Money(a.PromotionSavings))))
	}
	fmt.Fprintln(w, output.KeyValue("Estimated trip", fmt.Sprintf("%d min, %s fuel", a.EstimatedMinutes, output.Money(a.EstimatedFuelCost))))
	if a.BestStoreName != "" {
		fmt.Fprintln(w, output.KeyValue("Main store", fmt.Sprintf("%s (%.0f%% of value)", a.BestStoreName, a.BestStoreShare)))
	}
	if len(a.DominantCategories) > 0 {
		fmt.Fprintln(w, output.KeyValue("Top categories", strings.Join(a.DominantCategories, ", ")))
	}
	fmt.Fprintln(w, output.KeyValue("Efficiency", output.ScoreBar(a.EfficiencyScore, 20)))
	if res.Source == remote.SourceRemote {
		fmt.Fprintln(w, output.KeyValue("Source", fmt.Sprintf("remote (confidence %.0f%%)", res.Confidence*100)))
	}
	if a.Recommendation != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, " %s\n", output.StyleMuted.Render(a.Recommendation))
	}

	for _, issue := range res.Skipped {
		fmt.Fprintf(w, " %s item %d skipped: %s\n", output.StyleWarning.Render("!"), issue.Index, issue.Reason)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, " %s %s\n", output.StyleWarning.Render("!"), warning)
	}
	for _, insight := range res.Insights {
		fmt.Fprintf(w, " %s %s\n", output.StyleMuted.Render("*"), insight)
	}

	fmt.Fprintln(w)
	if len(res.Suggestions) == 0 {
		fmt.Fprintf(w, " %s\n\n", output.StyleSuccess.Render("No savings found. This list is already well optimized."))
		return
	}

	renderSuggestions(w, res.Suggestions)
	var total float64
	for _, s := range res.Suggestions {
		total += s.Savings
	}
	fmt.Fprintf(w, "\n %s %s\n\n", output.StyleBold.Render("Potential savings:"), output.Savings(total))
}

func renderSuggestions(w io.Writer, suggestions []suggest.Suggestion) {
	tbl := output.NewTable("Impact", "ID", "Item", "Suggestion", "Savings")
	for _, s := range suggestions {
		tbl.AddRow(
			output.ImpactBadge(suggest.ImpactLabel(s.Impact)),
			s.ID,
			s.Item,
			suggestionSummary(s),
			output.Savings(s.Savings),
		)
	}
	tbl.Fprint(w)
}

// suggestionSummary is a one-line description for table output.
func suggestionSummary(s suggest.Suggestion) string {
	switch s.Kind {
	case suggest.KindStore:
		return fmt.Sprintf("buy at %s (%s -> %s)", s.SuggestedStore, output.Money(s.CurrentPrice), output.Money(s.SuggestedPrice))
	case suggest.KindQuantity:
		return fmt.Sprintf("buy %d", s.Action.NewQuantity)
	case suggest.KindComplement:
		return fmt.Sprintf("add %s (~%s)", s.Item, output.Money(s.SuggestedPrice))
	case suggest.KindRoute:
		return fmt.Sprintf("shop at %s, save %d min", strings.Join(s.Action.KeepStores, ", "), s.TimeSavedMinutes)
	default:
		return s.Description
	}
}
