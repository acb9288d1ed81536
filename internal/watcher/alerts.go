package watcher

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Compare detects notable changes between two states of the same list and
// returns alerts. It checks for critical, warning, and info-level changes.
func Compare(prev, curr *WatchState) []Alert {
	var alerts []Alert

	alerts = append(alerts, compareCritical(prev, curr)...)
	alerts = append(alerts, compareWarning(prev, curr)...)
	alerts = append(alerts, compareInfo(prev, curr)...)

	return alerts
}

// compareCritical detects critical-level changes.
func compareCritical(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	// Items that could not be analyzed appeared.
	if curr.SkippedItems > prev.SkippedItems {
		alerts = append(alerts, Alert{
			Level:   "critical",
			List:    curr.ListName,
			Title:   "Invalid items in list",
			Message: fmt.Sprintf("%d item(s) are skipped by the analysis (was %d)", curr.SkippedItems, prev.SkippedItems),
			Time:    now,
		})
	}

	// Efficiency fell by 20 points or more.
	if prev.EfficiencyScore-curr.EfficiencyScore >= 20 {
		alerts = append(alerts, Alert{
			Level:   "critical",
			List:    curr.ListName,
			Title:   "Efficiency dropped",
			Message: fmt.Sprintf("Efficiency is %.0f (was %.0f) with %d stores to visit", curr.EfficiencyScore, prev.EfficiencyScore, curr.StoreCount),
			Time:    now,
		})
	}

	return alerts
}

// compareWarning detects warning-level changes.
func compareWarning(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	// Potential savings grew.
	if curr.PotentialSavings > prev.PotentialSavings {
		alerts = append(alerts, Alert{
			Level:   "warning",
			List:    curr.ListName,
			Title:   "More savings available",
			Message: fmt.Sprintf("Potential savings rose from %.2f to %.2f", prev.PotentialSavings, curr.PotentialSavings),
			Time:    now,
		})
	}

	// The list now spans more stores.
	if curr.StoreCount > prev.StoreCount {
		alerts = append(alerts, Alert{
			Level:   "warning",
			List:    curr.ListName,
			Title:   "More stores to visit",
			Message: fmt.Sprintf("List spans %d stores (was %d)", curr.StoreCount, prev.StoreCount),
			Time:    now,
		})
	}

	// Total grew by more than 20%.
	if prev.TotalValue > 0 {
		increase := (curr.TotalValue - prev.TotalValue) / prev.TotalValue
		if increase > 0.20 {
			alerts = append(alerts, Alert{
				Level:   "warning",
				List:    curr.ListName,
				Title:   "List total jumped",
				Message: fmt.Sprintf("Total rose from %.2f to %.2f (+%.0f%%)", prev.TotalValue, curr.TotalValue, increase*100),
				Time:    now,
			})
		}
	}

	return alerts
}

// compareInfo detects informational changes.
func compareInfo(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	if curr.ItemCount != prev.ItemCount || curr.TotalValue != prev.TotalValue {
		alerts = append(alerts, Alert{
			Level:   "info",
			List:    curr.ListName,
			Title:   "List updated",
			Message: fmt.Sprintf("%d items, total %.2f", curr.ItemCount, curr.TotalValue),
			Time:    now,
		})
	}

	if added := newSuggestions(prev, curr); len(added) > 0 {
		alerts = append(alerts, Alert{
			Level:   "info",
			List:    curr.ListName,
			Title:   fmt.Sprintf("%d new suggestion(s)", len(added)),
			Message: strings.Join(added, "; "),
			Time:    now,
		})
	}

	if gone := newSuggestions(curr, prev); len(gone) > 0 {
		alerts = append(alerts, Alert{
			Level:   "info",
			List:    curr.ListName,
			Title:   fmt.Sprintf("%d suggestion(s) no longer apply", len(gone)),
			Message: strings.Join(gone, "; "),
			Time:    now,
		})
	}

	return alerts
}

// newSuggestions describes the suggestions present in curr but not in prev,
// identified by suggestion ID, sorted by ID.
func newSuggestions(prev, curr *WatchState) []string {
	var ids []string
	for id := range curr.suggestions {
		if _, ok := prev.suggestions[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		s := curr.suggestions[id]
		if s.Savings > 0 {
			out = append(out, fmt.Sprintf("%s (%s, saves %.2f)", s.Item, s.Kind, s.Savings))
		} else {
			out = append(out, fmt.Sprintf("%s (%s)", s.Item, s.Kind))
		}
	}
	return out
}
