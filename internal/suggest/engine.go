package suggest

import (
	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/list"
)

// SourceLocal marks results computed by the in-process engine.
const SourceLocal = "local"

// Engine runs all registered generators against a list and aggregates the
// resulting suggestions. An Engine holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	config     Config
	generators []Generator
}

// NewEngine creates a new suggest engine with all built-in generators
// registered.
func NewEngine(cfg Config) *Engine {
	return NewEngineWithGenerators(cfg,
		StoreSwitch,
		QuantityOptimizer,
		ComplementRecommender,
		RouteConsolidator,
	)
}

// NewEngineWithGenerators creates an engine running only the given generators.
func NewEngineWithGenerators(cfg Config, generators ...Generator) *Engine {
	return &Engine{config: cfg.withDefaults(), generators: generators}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Context normalizes items and builds the analysis context generators run on.
// Items rejected by normalization are returned as issues.
func (e *Engine) Context(items []list.Item) (*AnalysisContext, []list.Issue) {
	valid, issues := list.Normalize(items)
	return &AnalysisContext{
		Items:    valid,
		Analyses: analyzer.Analyze(valid),
		Config:   e.config,
	}, issues
}

// Run executes all registered generators against the given context and
// returns the aggregated suggestions.
func (e *Engine) Run(ctx *AnalysisContext) []Suggestion {
	var all []Suggestion
	for _, gen := range e.generators {
		all = append(all, gen(ctx)...)
	}
	return Aggregate(all, ctx.Config)
}

// Analyze computes the analytics snapshot and ranked suggestions for a list.
// Malformed items are skipped and reported in Result.Skipped. The input
// slice is never modified.
func (e *Engine) Analyze(items []list.Item) Result {
	ctx, issues := e.Context(items)
	suggestions := e.Run(ctx)
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return Result{
		Analytics:   analyzer.BuildSnapshot(ctx.Items, ctx.Analyses, e.config.TravelModel()),
		Suggestions: suggestions,
		Skipped:     issues,
		Source:      SourceLocal,
	}
}
