package store

// MetricHigherIsBetter maps run metric names to whether higher values are
// better.
var MetricHigherIsBetter = map[string]bool{
	"total_value":         false,
	"total_stores":        false,
	"efficiency_score":    true,
	"promotion_savings":   true,
	"estimated_minutes":   false,
	"estimated_fuel_cost": false,
	"suggestion_count":    false,
	"potential_savings":   false,
}

// MetricOrder is the display order of run metrics.
var MetricOrder = []string{
	"total_value",
	"total_stores",
	"efficiency_score",
	"promotion_savings",
	"estimated_minutes",
	"estimated_fuel_cost",
	"suggestion_count",
	"potential_savings",
}

// Metrics flattens a run into named values.
func (r *Run) Metrics() map[string]float64 {
	return map[string]float64{
		"total_value":         r.TotalValue,
		"total_stores":        float64(r.TotalStores),
		"efficiency_score":    r.EfficiencyScore,
		"promotion_savings":   r.PromotionSavings,
		"estimated_minutes":   float64(r.EstimatedMinutes),
		"estimated_fuel_cost": r.EstimatedFuelCost,
		"suggestion_count":    float64(r.SuggestionCount),
		"potential_savings":   r.PotentialSavings,
	}
}

// CompareRuns computes metric deltas from prev to curr.
func CompareRuns(prev, curr *Run) *RunDiff {
	prevMetrics := prev.Metrics()
	currMetrics := curr.Metrics()

	diff := &RunDiff{Previous: prev, Current: curr}
	for _, name := range MetricOrder {
		p, c := prevMetrics[name], currMetrics[name]
		delta := c - p

		direction := "unchanged"
		if delta != 0 {
			higherIsBetter := MetricHigherIsBetter[name]
			if (delta > 0) == higherIsBetter {
				direction = "improved"
			} else {
				direction = "regressed"
			}
		}

		diff.Deltas = append(diff.Deltas, MetricDelta{
			Name:      name,
			Previous:  p,
			Current:   c,
			Delta:     delta,
			Direction: direction,
		})
	}
	return diff
}
