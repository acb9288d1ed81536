package tracker

import (
	"fmt"

	"github.com/romuloroldao/precivox/internal/suggest"
)

// Result is the outcome of applying or reverting one suggestion.
type Result struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Applied bool    `json:"applied"`
	Savings float64 `json:"savings"`
}

// BatchResult is the outcome of applying a set of suggestions.
type BatchResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	TotalSavings float64  `json:"total_savings"`
	AppliedCount int      `json:"applied_count"`
	Skipped      []string `json:"skipped,omitempty"`
}

// Supported reports whether the host knows how to carry out an action kind.
func Supported(kind suggest.ActionKind) bool {
	switch kind {
	case suggest.ActionChangeStore, suggest.ActionIncreaseQuantity,
		suggest.ActionAddProduct, suggest.ActionOptimizeRoute:
		return true
	default:
		return false
	}
}

// ApplySuggestion toggles a suggestion in the tracker. Suggestions the
// tracker has not seen are registered first. Unsupported actions leave the
// tracker unchanged and return a failure result.
func ApplySuggestion(t *Tracker, s suggest.Suggestion) Result {
	if !Supported(s.Action.Kind) {
		return Result{
			Success: false,
			Message: fmt.Sprintf("Cannot apply %q: unsupported action %q", s.Item, s.Action.Kind),
		}
	}

	t.register(s)
	known, ok := t.Lookup(s.ID)
	if !ok {
		if s.ID == "" {
			return Result{Success: false, Message: "Suggestion has no id"}
		}
		return Result{
			Success: false,
			Message: fmt.Sprintf("Cannot apply %q: invalid savings amount", s.Item),
		}
	}

	if t.Toggle(s.ID) {
		return Result{
			Success: true,
			Applied: true,
			Message: fmt.Sprintf("%s optimized, saving %.2f", known.Item, known.Savings),
			Savings: known.Savings,
		}
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s reverted", known.Item),
	}
}

// ApplyAll applies every supported suggestion and reports the savings the
// call added. Suggestions with unsupported actions are listed in Skipped.
func ApplyAll(t *Tracker, suggestions []suggest.Suggestion) BatchResult {
	var supported []suggest.Suggestion
	var skipped []string
	for _, s := range suggestions {
		if !Supported(s.Action.Kind) {
			skipped = append(skipped, s.ID)
			continue
		}
		supported = append(supported, s)
	}

	before := t.SavingsCents()
	applied := t.ApplyAll(supported)
	added := float64(t.SavingsCents()-before) / 100

	res := BatchResult{
		Success:      len(supported) > 0 || len(suggestions) == 0,
		TotalSavings: added,
		AppliedCount: applied,
		Skipped:      skipped,
	}
	switch {
	case len(suggestions) == 0:
		res.Message = "No suggestions to apply"
	case !res.Success:
		res.Message = "None of the suggestions can be applied"
	default:
		res.Message = fmt.Sprintf("%d optimization(s) applied, total savings %.2f", applied, added)
	}
	return res
}
