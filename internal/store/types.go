// Package store provides SQLite persistence for the analysis history: runs,
// the suggestions they produced, and apply/revert events.
package store

import "time"

// Run is one recorded analysis of a list.
type Run struct {
	ID                int64     `json:"id"`
	TakenAt           time.Time `json:"taken_at"`
	ListName          string    `json:"list_name"`
	Command           string    `json:"command"`
	Version           string    `json:"version"`
	Source            string    `json:"source"`
	TotalStores       int       `json:"total_stores"`
	TotalItems        int       `json:"total_items"`
	TotalValue        float64   `json:"total_value"`
	EfficiencyScore   float64   `json:"efficiency_score"`
	PromotionSavings  float64   `json:"promotion_savings"`
	EstimatedMinutes  int       `json:"estimated_minutes"`
	EstimatedFuelCost float64   `json:"estimated_fuel_cost"`
	SuggestionCount   int       `json:"suggestion_count"`
	PotentialSavings  float64   `json:"potential_savings"`
	SkippedItems      int       `json:"skipped_items"`
}

// Suggestion statuses.
const (
	StatusOpen    = "open"
	StatusApplied = "applied"
)

// Event actions.
const (
	ActionApply  = "apply"
	ActionRevert = "revert"
)

// SuggestionRow is a suggestion recorded with a run.
type SuggestionRow struct {
	ID           int64   `json:"id"`
	RunID        int64   `json:"run_id"`
	SuggestionID string  `json:"suggestion_id"`
	Kind         string  `json:"kind"`
	Item         string  `json:"item"`
	Impact       int     `json:"impact"`
	Savings      float64 `json:"savings"`
	Description  string  `json:"description,omitempty"`
	Status       string  `json:"status"`
}

// Event records a suggestion being applied or reverted.
type Event struct {
	ID           int64     `json:"id"`
	RunID        int64     `json:"run_id"`
	SuggestionID string    `json:"suggestion_id"`
	Action       string    `json:"action"`
	Savings      float64   `json:"savings"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// RunDiff represents the comparison between two runs of the same list.
type RunDiff struct {
	Previous *Run          `json:"previous"`
	Current  *Run          `json:"current"`
	Deltas   []MetricDelta `json:"deltas"`
}

// MetricDelta represents the change in a single metric between runs.
type MetricDelta struct {
	Name      string  `json:"name"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"` // "improved", "regressed", "unchanged"
}
