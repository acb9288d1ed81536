package suggest

import (
	"math"
	"sort"

	"github.com/romuloroldao/precivox/internal/analyzer"
)

// Impact thresholds for magnitude-dependent tiers.
const (
	highStoreSavings      = 5.0
	mediumQuantitySavings = 3.0
)

// AssignImpact returns the impact tier for a suggestion based on its kind
// and savings.
func AssignImpact(s Suggestion) int {
	switch s.Kind {
	case KindRoute:
		return ImpactHigh
	case KindStore:
		if s.Savings >= highStoreSavings {
			return ImpactHigh
		}
		return ImpactMedium
	case KindQuantity:
		if s.Savings >= mediumQuantitySavings {
			return ImpactMedium
		}
		return ImpactLow
	default:
		return ImpactLow
	}
}

// RankSuggestions orders suggestions by impact tier, then savings (highest
// first), then id. The input is not modified.
func RankSuggestions(suggestions []Suggestion) []Suggestion {
	sorted := make([]Suggestion, len(suggestions))
	copy(sorted, suggestions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Impact != b.Impact {
			return a.Impact < b.Impact
		}
		if a.Savings != b.Savings {
			return a.Savings > b.Savings
		}
		return a.ID < b.ID
	})
	return sorted
}

// Aggregate merges generator output into the final suggestion list. The
// first suggestion with a given id wins, savings are rounded to cents,
// suggestions not exceeding the savings threshold or without a finite amount
// are dropped (complements are exempt from the threshold), the rest are
// ranked and capped at MaxSuggestions.
func Aggregate(suggestions []Suggestion, cfg Config) []Suggestion {
	cfg = cfg.withDefaults()

	seen := make(map[string]bool, len(suggestions))
	kept := make([]Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.ID == "" || seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		if math.IsNaN(s.Savings) || math.IsInf(s.Savings, 0) {
			continue
		}
		s.Savings = analyzer.Round2(s.Savings)
		if s.Kind != KindComplement && s.Savings <= cfg.MinSavingsThreshold {
			continue
		}
		if s.Kind == KindComplement {
			s.Savings = 0
		}
		s.Impact = AssignImpact(s)
		s.Applied = false
		kept = append(kept, s)
	}

	ranked := RankSuggestions(kept)
	if len(ranked) > cfg.MaxSuggestions {
		ranked = ranked[:cfg.MaxSuggestions]
	}
	return ranked
}
