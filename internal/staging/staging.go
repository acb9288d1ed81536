// Package staging wraps a synchronous computation in a sequence of labeled
// progress phases that a caller can display and cancel.
package staging

import (
	"context"
	"time"
)

// Phase is one labeled step of a staged run.
type Phase struct {
	Label    string
	Duration time.Duration
}

// PhaseDuration is the default length of each phase.
const PhaseDuration = 1200 * time.Millisecond

// DefaultPhases are shown while a list is analyzed.
var DefaultPhases = []Phase{
	{Label: "Analyzing prices", Duration: PhaseDuration},
	{Label: "Comparing nearby markets", Duration: PhaseDuration},
	{Label: "Finding promotions", Duration: PhaseDuration},
	{Label: "Computing optimized routes", Duration: PhaseDuration},
	{Label: "Generating personalized insights", Duration: PhaseDuration},
}

// Instant returns copies of phases with zero durations.
func Instant(phases []Phase) []Phase {
	out := make([]Phase, len(phases))
	for i, p := range phases {
		out[i] = Phase{Label: p.Label}
	}
	return out
}

// Run reports each phase through onPhase, waits its duration, and calls
// compute once after the last phase. If ctx is cancelled first, Run returns
// ctx.Err() and compute is never called. onPhase may be nil.
func Run[T any](ctx context.Context, phases []Phase, onPhase func(i int, p Phase), compute func() T) (T, error) {
	var zero T
	for i, p := range phases {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if onPhase != nil {
			onPhase(i, p)
		}
		if err := wait(ctx, p.Duration); err != nil {
			return zero, err
		}
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return compute(), nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
