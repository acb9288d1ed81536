// Package watcher provides background monitoring of shopping-list files,
// re-analyzing a list whenever it changes and emitting alerts when its
// savings picture moves.
package watcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/suggest"
)

// AnalyzeFunc analyzes a list. The local engine and the remote advisor both
// fit once wrapped.
type AnalyzeFunc func(ctx context.Context, items []list.Item) suggest.Result

// WatchState captures a point-in-time analysis of one list file.
type WatchState struct {
	Timestamp        time.Time
	Path             string
	ListName         string
	ModTime          time.Time
	ItemCount        int
	StoreCount       int
	TotalValue       float64
	EfficiencyScore  float64
	SuggestionCount  int
	PotentialSavings float64
	SkippedItems     int

	// suggestions maps suggestion id to the suggestion, for comparison.
	suggestions map[string]suggest.Suggestion
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	List    string
	Title   string
	Message string
	Time    time.Time
}

// Watcher monitors list files at a regular interval and emits alerts when
// notable changes are detected.
type Watcher struct {
	paths         []string
	interval      time.Duration
	analyze       AnalyzeFunc
	previous      map[string]*WatchState
	alertFn       func(Alert)     // callback for emitting alerts
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts

	// SavingsAlert raises a warning whenever a list's potential savings
	// reach this amount; 0 disables it.
	SavingsAlert float64
}

// New creates a Watcher for the given list files.
func New(paths []string, interval time.Duration, analyze AnalyzeFunc, alertFn func(Alert)) *Watcher {
	return &Watcher{
		paths:         append([]string(nil), paths...),
		interval:      interval,
		analyze:       analyze,
		previous:      make(map[string]*WatchState),
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
	}
}

// Baseline takes the initial snapshot of every list. It fails if any list
// cannot be read.
func (w *Watcher) Baseline(ctx context.Context) ([]*WatchState, error) {
	states := make([]*WatchState, 0, len(w.paths))
	for _, path := range w.paths {
		st, err := w.Snapshot(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("initial snapshot: %w", err)
		}
		w.previous[path] = st
		states = append(states, st)
	}
	return states, nil
}

// Run starts the watch loop. It takes a baseline unless one was taken, then
// checks at every interval. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.previous) == 0 {
		if _, err := w.Baseline(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			alerts := w.Check(ctx)
			for _, a := range alerts {
				if w.alertFn != nil {
					w.alertFn(a)
				}
			}
		}
	}
}

// Check performs a single check cycle over every list: files whose
// modification time is unchanged are skipped, the rest are re-analyzed and
// compared with their previous state. Identical alerts are suppressed until
// the underlying data changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	var raw []Alert
	for _, path := range w.paths {
		prev := w.previous[path]

		if prev != nil {
			info, err := os.Stat(path)
			if err == nil && info.ModTime().Equal(prev.ModTime) {
				raw = append(raw, w.savingsAlert(prev)...)
				continue
			}
		}

		curr, err := w.Snapshot(ctx, path)
		if err != nil {
			raw = append(raw, Alert{
				Level:   "warning",
				List:    path,
				Title:   "Snapshot failed",
				Message: fmt.Sprintf("Could not read list: %v", err),
				Time:    time.Now(),
			})
			continue
		}

		if prev != nil {
			raw = append(raw, Compare(prev, curr)...)
		}
		raw = append(raw, w.savingsAlert(curr)...)
		w.previous[path] = curr
	}

	// Deduplicate: suppress alerts with the same list+title+message as last cycle.
	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.List + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	return alerts
}

func (w *Watcher) savingsAlert(st *WatchState) []Alert {
	if w.SavingsAlert <= 0 || st.PotentialSavings < w.SavingsAlert {
		return nil
	}
	return []Alert{{
		Level:   "warning",
		List:    st.ListName,
		Title:   "Savings available",
		Message: fmt.Sprintf("%d suggestion(s) could save %.2f (alert at %.2f)", st.SuggestionCount, st.PotentialSavings, w.SavingsAlert),
		Time:    time.Now(),
	}}
}

// Snapshot loads and analyzes one list file.
func (w *Watcher) Snapshot(ctx context.Context, path string) (*WatchState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	sl, err := list.Load(path)
	if err != nil {
		return nil, err
	}

	res := w.analyze(ctx, sl.Items)
	state := &WatchState{
		Timestamp:       time.Now(),
		Path:            path,
		ListName:        sl.Name,
		ModTime:         info.ModTime(),
		ItemCount:       res.Analytics.TotalItems,
		StoreCount:      res.Analytics.TotalStores,
		TotalValue:      res.Analytics.TotalValue,
		EfficiencyScore: res.Analytics.EfficiencyScore,
		SuggestionCount: len(res.Suggestions),
		SkippedItems:    len(res.Skipped),
		suggestions:     make(map[string]suggest.Suggestion, len(res.Suggestions)),
	}
	for _, s := range res.Suggestions {
		state.PotentialSavings += s.Savings
		state.suggestions[s.ID] = s
	}
	state.PotentialSavings = analyzer.Round2(state.PotentialSavings)
	return state, nil
}
