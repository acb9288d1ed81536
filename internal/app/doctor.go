package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/romuloroldao/precivox/internal/config"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/output"
	"github.com/romuloroldao/precivox/internal/remote"
	"github.com/romuloroldao/precivox/internal/store"
	"github.com/romuloroldao/precivox/internal/suggest"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the precivox setup is healthy",
	Long: `Run a series of health checks against your precivox configuration,
the history database and the remote analysis service. Prints a pass/fail
line for each check and a summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		output.SetNoColor(true)
	}

	var checks []doctorCheck

	// 1. Config file: readable and valid, or absent (defaults apply).
	cfgCheck, cfg := checkConfig(flagConfig)
	checks = append(checks, cfgCheck)
	if cfg == nil {
		cfg = config.Default()
	}

	// 2. Suggestion engine: the built-in sample list yields suggestions.
	checks = append(checks, checkEngine(cfg.Analysis))

	// 3. History database: opens and answers.
	checks = append(checks, checkDatabase(cfg.Database.Path))

	// 4. Remote analysis service: answers its health endpoint when configured.
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	checks = append(checks, checkRemote(ctx, cfg.Remote))

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		return writeJSON(doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		})
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()

	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

// checkConfig loads the config file. It returns the loaded config, or nil
// when loading failed.
func checkConfig(cfgFile string) (doctorCheck, *config.Config) {
	path := cfgFile
	if path == "" {
		path = filepath.Join(config.ConfigDir(), config.DefaultConfigFile)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return doctorCheck{
			Name:    "Config file",
			Passed:  false,
			Message: err.Error(),
		}, nil
	}

	if _, err := os.Stat(path); err != nil {
		return doctorCheck{
			Name:    "Config file",
			Passed:  true,
			Message: fmt.Sprintf("not found at %s (using defaults)", path),
		}, cfg
	}
	return doctorCheck{
		Name:    "Config file",
		Passed:  true,
		Message: path,
	}, cfg
}

// doctorSample is a small list that produces at least one suggestion with
// the default configuration.
var doctorSample = []list.Item{
	{Product: list.Product{ID: "1", Name: "Detergente", Price: 25, Store: "Mercado B"}, Quantity: 2},
	{Product: list.Product{ID: "2", Name: "Arroz", Price: 4, Store: "Mercado A"}, Quantity: 2},
	{Product: list.Product{ID: "3", Name: "Picanha", Price: 80, Store: "Açougue C"}, Quantity: 1},
}

// checkEngine runs the suggestion engine over a built-in sample list.
func checkEngine(cfg suggest.Config) doctorCheck {
	res := suggest.NewEngine(cfg).Analyze(doctorSample)
	if len(res.Suggestions) == 0 {
		return doctorCheck{
			Name:    "Suggestion engine",
			Passed:  false,
			Message: "sample list produced no suggestions; check analysis thresholds",
		}
	}
	return doctorCheck{
		Name:    "Suggestion engine",
		Passed:  true,
		Message: fmt.Sprintf("%d suggestions for the sample list, %d alternative stores", len(res.Suggestions), len(cfg.AlternativeStores)),
	}
}

// checkDatabase verifies that the history database exists and answers.
func checkDatabase(dbPath string) doctorCheck {
	if _, err := os.Stat(dbPath); err != nil {
		return doctorCheck{
			Name:    "History database",
			Passed:  false,
			Message: fmt.Sprintf("not found at %s (run 'precivox track' to create)", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return doctorCheck{
			Name:    "History database",
			Passed:  false,
			Message: fmt.Sprintf("open failed: %v", err),
		}
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return doctorCheck{
			Name:    "History database",
			Passed:  false,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	runs, err := db.GetRecentRuns("", 1)
	if err != nil {
		return doctorCheck{
			Name:    "History database",
			Passed:  false,
			Message: fmt.Sprintf("query failed: %v", err),
		}
	}
	msg := dbPath
	if len(runs) > 0 {
		msg = fmt.Sprintf("%s (last run %s)", dbPath, runs[0].TakenAt.Local().Format("2006-01-02 15:04"))
	}
	return doctorCheck{
		Name:    "History database",
		Passed:  true,
		Message: msg,
	}
}

// checkRemote checks the analysis service. An unconfigured service passes:
// analysis then runs locally.
func checkRemote(ctx context.Context, r config.Remote) doctorCheck {
	if r.URL == "" {
		return doctorCheck{
			Name:    "Remote analysis service",
			Passed:  true,
			Message: "not configured (local analysis only)",
		}
	}

	timeout := r.Timeout()
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := remote.NewClient(r.URL, r.APIKey, timeout)
	if err := client.Health(ctx); err != nil {
		return doctorCheck{
			Name:    "Remote analysis service",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", r.URL, err),
		}
	}
	return doctorCheck{
		Name:    "Remote analysis service",
		Passed:  true,
		Message: r.URL,
	}
}
