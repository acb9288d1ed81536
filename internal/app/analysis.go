package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/romuloroldao/precivox/internal/config"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/logging"
	"github.com/romuloroldao/precivox/internal/output"
	"github.com/romuloroldao/precivox/internal/remote"
	"github.com/romuloroldao/precivox/internal/staging"
	"github.com/romuloroldao/precivox/internal/suggest"
)

// loadConfig loads the configuration and applies its output and logging
// preferences. Command-line flags and LOG_LEVEL win over the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagNoColor || !cfg.Output.Color {
		output.SetNoColor(true)
	}
	output.SetWidth(cfg.Output.Width)
	if !flagVerbose && os.Getenv("LOG_LEVEL") == "" && cfg.LogLevel != "" {
		logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
	}
	return cfg, nil
}

// newAdvisor returns a remote advisor when a service URL is configured, or
// nil for local-only analysis. A non-empty urlOverride replaces the
// configured URL.
func newAdvisor(cfg *config.Config, engine *suggest.Engine, urlOverride string) *remote.Advisor {
	url := cfg.Remote.URL
	if urlOverride != "" {
		url = urlOverride
	}
	if url == "" {
		return nil
	}
	return &remote.Advisor{
		Client: remote.NewClient(url, cfg.Remote.APIKey, cfg.Remote.Timeout()),
		Engine: engine,
		Logger: slog.Default(),
	}
}

// analyzeItems runs the advisor when one is set, otherwise the local engine.
func analyzeItems(ctx context.Context, engine *suggest.Engine, advisor *remote.Advisor, items []list.Item) suggest.Result {
	if advisor != nil {
		return advisor.Analyze(ctx, items)
	}
	return engine.Analyze(items)
}

// stagePhases returns the progress phases with the configured duration, or
// zero durations when noDelay is set.
func stagePhases(cfg *config.Config, noDelay bool) []staging.Phase {
	if noDelay {
		return staging.Instant(staging.DefaultPhases)
	}
	phases := make([]staging.Phase, len(staging.DefaultPhases))
	for i, p := range staging.DefaultPhases {
		phases[i] = staging.Phase{Label: p.Label, Duration: cfg.Staging.PhaseDuration()}
	}
	return phases
}
