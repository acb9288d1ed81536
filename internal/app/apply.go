package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/output"
	"github.com/romuloroldao/precivox/internal/suggest"
	"github.com/romuloroldao/precivox/internal/tracker"
)

var (
	applyIDs    []string
	applyAll    bool
	applyOutput string
	applyDryRun bool
	applyRemote string
)

var applyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Apply suggestions to a list and write the optimized list",
	Long: `Analyze a shopping list, apply the chosen suggestions (by id, as shown
by 'precivox analyze', or all of them) and write the resulting list.

The list is rewritten in place unless --output names another file.
Use --dry-run to preview the changes without writing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringSliceVar(&applyIDs, "id", nil, "Suggestion id to apply (repeatable)")
	applyCmd.Flags().BoolVar(&applyAll, "all", false, "Apply every suggestion")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Write the optimized list to this file")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Show the changes without writing")
	applyCmd.Flags().StringVar(&applyRemote, "remote", "", "Analysis service URL (overrides remote.url)")
	rootCmd.AddCommand(applyCmd)
}

// applyOutcome is the JSON-serializable result of the apply command.
type applyOutcome struct {
	List       string        `json:"list"`
	Output     string        `json:"output,omitempty"`
	AppliedIDs []string      `json:"applied_ids"`
	Savings    float64       `json:"savings"`
	Stats      tracker.Stats `json:"stats"`
	Changes    []string      `json:"changes"`
	Failures   []string      `json:"failures,omitempty"`
	Items      []list.Item   `json:"items"`
	Written    bool          `json:"written"`
}

func runApply(cmd *cobra.Command, args []string) error {
	if !applyAll && len(applyIDs) == 0 {
		return errors.New("nothing to apply: pass --id or --all")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := args[0]
	sl, err := list.Load(path)
	if err != nil {
		return err
	}

	engine := suggest.NewEngine(cfg.Analysis)
	res := analyzeItems(cmd.Context(), engine, newAdvisor(cfg, engine, applyRemote), sl.Items)

	out, err := applySuggestions(sl, res.Suggestions, applyIDs, applyAll)
	if err != nil {
		return err
	}
	out.Output = applyOutput
	if out.Output == "" {
		out.Output = path
	}

	if !applyDryRun && len(out.AppliedIDs) > 0 {
		if err := list.Save(out.Output, &list.ShoppingList{Name: sl.Name, Items: out.Items}); err != nil {
			return err
		}
		out.Written = true
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	renderApply(out)
	return nil
}

// applySuggestions applies the selected suggestions to the normalized list
// and returns the updated items. Unknown ids are an error; suggestions that
// cannot be applied are reported as failures and do not count toward the
// savings.
func applySuggestions(sl *list.ShoppingList, suggestions []suggest.Suggestion, ids []string, all bool) (applyOutcome, error) {
	t := tracker.New(suggestions)
	out := applyOutcome{List: sl.Name}

	if all {
		batch := tracker.ApplyAll(t, t.Suggestions())
		out.Failures = append(out.Failures, batch.Skipped...)
	} else {
		for _, id := range ids {
			s, ok := t.Lookup(id)
			if !ok {
				return out, fmt.Errorf("unknown suggestion %q (run 'precivox analyze' to list ids)", id)
			}
			if t.IsApplied(id) {
				continue
			}
			r := tracker.ApplySuggestion(t, s)
			if !r.Success {
				out.Failures = append(out.Failures, r.Message)
			}
		}
	}

	valid, issues := list.Normalize(sl.Items)
	out.Items, out.Changes = tracker.Commit(valid, t)
	// Items the analysis skipped are written back untouched.
	for _, is := range issues {
		out.Items = append(out.Items, sl.Items[is.Index])
	}
	out.AppliedIDs = t.AppliedIDs()
	if out.AppliedIDs == nil {
		out.AppliedIDs = []string{}
	}
	if out.Changes == nil {
		out.Changes = []string{}
	}
	out.Savings = t.Savings()
	out.Stats = t.Stats()
	return out, nil
}

func renderApply(out applyOutcome) {
	fmt.Println(output.Section("Apply: " + out.List))
	fmt.Println()

	for _, c := range out.Changes {
		fmt.Printf("  %s %s\n", output.StyleSuccess.Render("✓"), c)
	}
	for _, f := range out.Failures {
		fmt.Printf("  %s %s\n", output.StyleWarning.Render("✗"), f)
	}
	if len(out.AppliedIDs) == 0 {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render("No suggestions were applied."))
		return
	}

	fmt.Println()
	fmt.Println(output.KeyValue("Applied", fmt.Sprintf("%d suggestions", len(out.AppliedIDs))))
	fmt.Println(output.KeyValue("Savings", output.Savings(out.Savings)))
	if out.Written {
		fmt.Println(output.KeyValue("Written to", out.Output))
	} else {
		fmt.Println(output.KeyValue("Written to", output.StyleMuted.Render("nothing (dry run)")))
	}
	fmt.Println()
}
