package staging

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun_ReportsPhasesThenComputes(t *testing.T) {
	var labels []string
	computed := false

	got, err := Run(context.Background(), Instant(DefaultPhases),
		func(i int, p Phase) {
			if computed {
				t.Errorf("phase %d reported after compute", i)
			}
			labels = append(labels, p.Label)
		},
		func() int {
			computed = true
			return 42
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d, want 42", got)
	}
	if len(labels) != len(DefaultPhases) {
		t.Fatalf("got %d phases, want %d", len(labels), len(DefaultPhases))
	}
	if labels[0] != "Analyzing prices" || labels[4] != "Generating personalized insights" {
		t.Errorf("unexpected labels %v", labels)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Run(ctx, DefaultPhases, nil, func() bool { called = true; return true })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Error("compute must not run after cancellation")
	}
}

func TestRun_CancelledMidPhase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	phases := []Phase{
		{Label: "one", Duration: time.Millisecond},
		{Label: "two", Duration: time.Hour},
		{Label: "three", Duration: time.Millisecond},
	}

	var seen []string
	called := false
	start := time.Now()
	_, err := Run(ctx, phases,
		func(i int, p Phase) {
			seen = append(seen, p.Label)
			if i == 1 {
				cancel()
			}
		},
		func() bool { called = true; return true },
	)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Error("compute must not run after cancellation")
	}
	if len(seen) != 2 {
		t.Errorf("phases seen = %v, want [one two]", seen)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not interrupt the phase wait")
	}
}

func TestRun_WaitsPhaseDuration(t *testing.T) {
	phases := []Phase{{Label: "a", Duration: 20 * time.Millisecond}, {Label: "b", Duration: 20 * time.Millisecond}}
	start := time.Now()
	if _, err := Run(context.Background(), phases, nil, func() struct{} { return struct{}{} }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("elapsed %v, want at least 40ms", elapsed)
	}
}

func TestInstant(t *testing.T) {
	for _, p := range Instant(DefaultPhases) {
		if p.Duration != 0 {
			t.Errorf("%s: duration %v, want 0", p.Label, p.Duration)
		}
	}
	if DefaultPhases[0].Duration != PhaseDuration {
		t.Error("Instant must not modify its input")
	}
}
