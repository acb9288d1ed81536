package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/suggest"
)

const twoStoreList = `{"name":"weekly","items":[
	{"product":{"id":"1","name":"Arroz","price":4,"store":"Mercado A"},"quantity":2},
	{"product":{"id":"2","name":"Feijão","price":8,"store":"Mercado B"},"quantity":1}
]}`

const threeStoreList = `{"name":"weekly","items":[
	{"product":{"id":"1","name":"Arroz","price":4,"store":"Mercado A"},"quantity":2},
	{"product":{"id":"2","name":"Feijão","price":8,"store":"Mercado B"},"quantity":1},
	{"product":{"id":"4","name":"Picanha","price":80,"store":"Açougue C"},"quantity":1}
]}`

func localAnalyze() AnalyzeFunc {
	engine := suggest.NewEngine(suggest.DefaultConfig())
	return func(_ context.Context, items []list.Item) suggest.Result {
		return engine.Analyze(items)
	}
}

// writeListFile writes body to path and stamps it with modTime.
func writeListFile(t *testing.T, path, body string, modTime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write list: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("failed to set mod time: %v", err)
	}
}

func TestSnapshot_MissingFile(t *testing.T) {
	w := New(nil, time.Minute, localAnalyze(), nil)
	if _, err := w.Snapshot(context.Background(), "/nonexistent/list.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSnapshot_List(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")
	writeListFile(t, path, threeStoreList, time.Now())

	w := New([]string{path}, time.Minute, localAnalyze(), nil)
	state, err := w.Snapshot(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.ListName != "weekly" {
		t.Errorf("ListName = %q, want weekly", state.ListName)
	}
	if state.StoreCount != 3 {
		t.Errorf("StoreCount = %d, want 3", state.StoreCount)
	}
	if state.ItemCount != 4 {
		t.Errorf("ItemCount = %d, want 4", state.ItemCount)
	}
	if state.SuggestionCount != len(state.suggestions) {
		t.Errorf("SuggestionCount = %d, tracked %d", state.SuggestionCount, len(state.suggestions))
	}
	if route, ok := state.suggestions["route-list"]; !ok {
		t.Error("expected a route suggestion for three stores")
	} else if state.PotentialSavings < route.Savings {
		t.Errorf("PotentialSavings = %.2f, want at least %.2f", state.PotentialSavings, route.Savings)
	}
}

func TestBaseline_FailsOnMissingList(t *testing.T) {
	w := New([]string{"/nonexistent/list.json"}, time.Minute, localAnalyze(), nil)
	if _, err := w.Baseline(context.Background()); err == nil {
		t.Fatal("expected baseline error")
	}
}

func TestCheck_UnchangedFileSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")
	writeListFile(t, path, twoStoreList, time.Now().Add(-time.Hour))

	calls := 0
	engine := suggest.NewEngine(suggest.DefaultConfig())
	analyze := func(_ context.Context, items []list.Item) suggest.Result {
		calls++
		return engine.Analyze(items)
	}

	w := New([]string{path}, time.Minute, analyze, nil)
	if _, err := w.Baseline(context.Background()); err != nil {
		t.Fatal(err)
	}
	if alerts := w.Check(context.Background()); len(alerts) != 0 {
		t.Errorf("expected no alerts for an unchanged file, got %d", len(alerts))
	}
	if calls != 1 {
		t.Errorf("analyze called %d times, want 1", calls)
	}
}

func TestCheck_DetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")
	base := time.Now().Add(-time.Hour)
	writeListFile(t, path, twoStoreList, base)

	w := New([]string{path}, time.Minute, localAnalyze(), nil)
	if _, err := w.Baseline(context.Background()); err != nil {
		t.Fatal(err)
	}

	writeListFile(t, path, threeStoreList, base.Add(time.Minute))
	alerts := w.Check(context.Background())

	if findAlert(alerts, "More stores to visit") == nil {
		t.Error("expected store count alert")
	}
	if findAlert(alerts, "List updated") == nil {
		t.Error("expected list updated alert")
	}

	// The same state again produces nothing new.
	if again := w.Check(context.Background()); len(again) != 0 {
		t.Errorf("expected no alerts on second check, got %d", len(again))
	}
}

func TestCheck_MissingFileWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")
	writeListFile(t, path, twoStoreList, time.Now())

	w := New([]string{path}, time.Minute, localAnalyze(), nil)
	if _, err := w.Baseline(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	alerts := w.Check(context.Background())
	if a := findAlert(alerts, "Snapshot failed"); a == nil || a.Level != "warning" {
		t.Errorf("expected snapshot warning, got %+v", alerts)
	}
}

func TestCheck_SavingsAlertDeduplicated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")
	writeListFile(t, path, threeStoreList, time.Now())

	w := New([]string{path}, time.Minute, localAnalyze(), nil)
	states, err := w.Baseline(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if states[0].PotentialSavings <= 0 {
		t.Skip("list produced no savings")
	}
	w.SavingsAlert = states[0].PotentialSavings

	if a := findAlert(w.Check(context.Background()), "Savings available"); a == nil {
		t.Fatal("expected savings alert on first check")
	}
	if alerts := w.Check(context.Background()); len(alerts) != 0 {
		t.Errorf("expected the repeated savings alert to be suppressed, got %d", len(alerts))
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.json")
	writeListFile(t, path, twoStoreList, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	w := New([]string{path}, 10*time.Millisecond, localAnalyze(), func(Alert) {})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
