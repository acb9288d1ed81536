package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/output"
	"github.com/romuloroldao/precivox/internal/suggest"
	"github.com/romuloroldao/precivox/internal/watcher"
)

var (
	watchInterval string
	watchQuiet    bool
	watchNotify   bool
	watchSavings  float64
	watchRemote   string
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE...",
	Short: "Monitor lists and alert when their savings change",
	Long: `Watch one or more shopping-list files. Whenever a file changes it is
analyzed again and compared with its previous state; notable changes
(new suggestions, more stores, invalid items, higher savings) are printed
and, with --notify, sent as desktop notifications.

Examples:
  precivox watch weekly.json                 # check every 30s (ctrl-c to stop)
  precivox watch --interval 5m *.yaml        # check every 5 minutes
  precivox watch --savings 20 weekly.json    # alert while savings reach R$ 20`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchInterval, "interval", "30s", "Check interval as duration string (e.g. 30s, 5m)")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Send desktop notifications")
	watchCmd.Flags().Float64Var(&watchSavings, "savings", 0, "Alert while potential savings reach this amount")
	watchCmd.Flags().StringVar(&watchRemote, "remote", "", "Analysis service URL (overrides remote.url)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, err := time.ParseDuration(watchInterval)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", watchInterval, err)
	}
	if interval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %s", interval)
	}
	if watchQuiet && !watchNotify {
		return errors.New("--quiet without --notify would report nothing")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := suggest.NewEngine(cfg.Analysis)
	advisor := newAdvisor(cfg, engine, watchRemote)
	analyze := func(ctx context.Context, items []list.Item) suggest.Result {
		return analyzeItems(ctx, engine, advisor, items)
	}

	alertFn := func(a watcher.Alert) {
		if watchNotify {
			_ = watcher.Notify(a)
		}
		if !watchQuiet {
			printAlert(a)
		}
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, shutdownSignals...)
	defer stop()

	w := watcher.New(args, interval, analyze, alertFn)
	w.SavingsAlert = watchSavings

	baseline, err := w.Baseline(ctx)
	if err != nil {
		return err
	}
	if !watchQuiet {
		fmt.Printf("precivox watching %d list(s)... (checking every %s)\n", len(baseline), interval)
		for _, st := range baseline {
			fmt.Printf("[%s] %s %s: %d items, %s, %d suggestions worth %s\n",
				time.Now().Format("15:04:05"),
				checkMark(),
				st.ListName,
				st.ItemCount,
				output.Money(st.TotalValue),
				st.SuggestionCount,
				output.Money(st.PotentialSavings))
		}
	}

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			fmt.Println("\nStopped.")
		}
		return nil
	}
	return err
}

// printAlert formats and prints an alert to the terminal.
func printAlert(a watcher.Alert) {
	timestamp := a.Time.Format("15:04:05")
	icon := alertIcon(a.Level)
	title := a.Title
	if a.List != "" {
		title = a.List + ": " + a.Title
	}
	fmt.Printf("[%s] %s %s\n", timestamp, icon, title)
	if a.Message != "" {
		fmt.Printf("         %s\n", a.Message)
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return output.StyleError.Render("!!")
	case "warning":
		return output.StyleWarning.Render("!")
	case "info":
		return checkMark()
	default:
		return " "
	}
}

// checkMark returns a terminal check mark indicator.
func checkMark() string {
	return output.StyleSuccess.Render("✓")
}
