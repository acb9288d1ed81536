package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/romuloroldao/precivox/internal/config"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/output"
	"github.com/romuloroldao/precivox/internal/staging"
	"github.com/romuloroldao/precivox/internal/store"
	"github.com/romuloroldao/precivox/internal/suggest"
)

const weeklyJSON = `{"name":"weekly","items":[
	{"product":{"id":"1","name":"Detergente Ypê","price":25,"store":"Mercado B"},"quantity":2},
	{"product":{"id":"2","name":"Arroz","price":4,"store":"Mercado A"},"quantity":2},
	{"product":{"id":"4","name":"Picanha","price":80,"store":"Açougue C"},"quantity":1},
	{"product":{"id":"7","name":"Leite","price":5,"store":"Mercado A"},"quantity":30}
]}`

func writeList(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadWeekly(t *testing.T) (*list.ShoppingList, suggest.Result) {
	t.Helper()
	sl, err := list.Load(writeList(t, "weekly.json", weeklyJSON))
	if err != nil {
		t.Fatal(err)
	}
	return sl, suggest.NewEngine(suggest.DefaultConfig()).Analyze(sl.Items)
}

func TestCommands_Registered(t *testing.T) {
	want := map[string]bool{
		"analyze": false, "apply": false, "track": false,
		"serve": false, "mcp": false, "doctor": false, "watch": false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s subcommand not registered on rootCmd", name)
		}
	}
}

func TestAnalyzeFiles_KeepsArgumentOrder(t *testing.T) {
	first := writeList(t, "weekly.json", weeklyJSON)
	second := writeList(t, "party.yaml", `items:
  - product: {id: "1", name: Refrigerante, price: 8, store: Mercado A}
    quantity: 3
`)

	engine := suggest.NewEngine(suggest.DefaultConfig())
	reports, err := analyzeFiles(context.Background(), engine, nil, []string{second, first})
	if err != nil {
		t.Fatalf("analyzeFiles: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Name != "party" || reports[1].Name != "weekly" {
		t.Errorf("names = %q, %q; want party, weekly", reports[0].Name, reports[1].Name)
	}
	if reports[1].Result.Analytics.TotalStores != 3 {
		t.Errorf("TotalStores = %d, want 3", reports[1].Result.Analytics.TotalStores)
	}
}

func TestAnalyzeFiles_MissingFile(t *testing.T) {
	engine := suggest.NewEngine(suggest.DefaultConfig())
	_, err := analyzeFiles(context.Background(), engine, nil, []string{filepath.Join(t.TempDir(), "nope.json")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAnalyzeStagedFiles_PrintsPhases(t *testing.T) {
	output.SetNoColor(true)
	defer output.SetNoColor(false)
	analyzeNoDelay = true
	defer func() { analyzeNoDelay = false }()

	var buf bytes.Buffer
	engine := suggest.NewEngine(suggest.DefaultConfig())
	path := writeList(t, "weekly.json", weeklyJSON)

	reports, err := analyzeStagedFiles(context.Background(), config.Default(), engine, nil, []string{path}, &buf)
	if err != nil {
		t.Fatalf("analyzeStagedFiles: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}

	out := buf.String()
	for i, p := range staging.DefaultPhases {
		if !strings.Contains(out, output.PhaseLine(i, len(staging.DefaultPhases), p.Label)) {
			t.Errorf("missing phase line for %q in:\n%s", p.Label, out)
		}
	}
}

func TestAnalyzeStagedFiles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	engine := suggest.NewEngine(suggest.DefaultConfig())
	_, err := analyzeStagedFiles(ctx, config.Default(), engine, nil, []string{"unused.json"}, &buf)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestStagePhases(t *testing.T) {
	cfg := config.Default()
	cfg.Staging.PhaseMillis = 250

	for _, p := range stagePhases(cfg, false) {
		if p.Duration != 250*time.Millisecond {
			t.Errorf("%s: duration = %v, want 250ms", p.Label, p.Duration)
		}
	}
	for _, p := range stagePhases(cfg, true) {
		if p.Duration != 0 {
			t.Errorf("%s: duration = %v, want 0", p.Label, p.Duration)
		}
	}
}

func TestNewAdvisor(t *testing.T) {
	cfg := config.Default()
	engine := suggest.NewEngine(cfg.Analysis)

	if a := newAdvisor(cfg, engine, ""); a != nil {
		t.Error("expected no advisor without a URL")
	}

	a := newAdvisor(cfg, engine, "http://localhost:9999")
	if a == nil || a.Client == nil {
		t.Fatal("expected an advisor for the override URL")
	}
	if a.Client.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL = %q", a.Client.BaseURL)
	}
}

func TestApplySuggestions_ByID(t *testing.T) {
	sl, res := loadWeekly(t)

	var storeSwitch *suggest.Suggestion
	for i := range res.Suggestions {
		if res.Suggestions[i].Kind == suggest.KindStore {
			storeSwitch = &res.Suggestions[i]
			break
		}
	}
	if storeSwitch == nil {
		t.Fatal("expected a store suggestion")
	}

	out, err := applySuggestions(sl, res.Suggestions, []string{storeSwitch.ID, storeSwitch.ID}, false)
	if err != nil {
		t.Fatalf("applySuggestions: %v", err)
	}
	if len(out.AppliedIDs) != 1 || out.AppliedIDs[0] != storeSwitch.ID {
		t.Errorf("AppliedIDs = %v, want [%s]", out.AppliedIDs, storeSwitch.ID)
	}
	if diff := out.Savings - storeSwitch.Savings; diff > 0.001 || diff < -0.001 {
		t.Errorf("Savings = %.2f, want %.2f", out.Savings, storeSwitch.Savings)
	}
	if len(out.Changes) == 0 {
		t.Error("expected change notes")
	}
	for _, it := range out.Items {
		if it.Product.ID == storeSwitch.Action.ProductID && it.Product.StoreName() != storeSwitch.Action.NewStore {
			t.Errorf("store = %q, want %q", it.Product.StoreName(), storeSwitch.Action.NewStore)
		}
	}
	if sl.Items[2].Product.StoreName() != "Açougue C" {
		t.Error("input list was modified")
	}
}

func TestApplySuggestions_PaddedIDsAndMalformedItems(t *testing.T) {
	sl, err := list.Load(writeList(t, "padded.json", `{"name":"padded","items":[
	{"product":{"id":"1","name":"Detergente Ypê","price":25,"store":"Mercado B"},"quantity":2},
	{"product":{"id":"2","name":"Arroz","price":4,"store":"Mercado A"},"quantity":2},
	{"product":{"id":" 4 ","name":"Picanha","price":80,"store":"Açougue C"},"quantity":1},
	{"product":{"id":"7","name":"Leite","price":5,"store":"Mercado A"},"quantity":30},
	{"product":{"id":"9","name":"","price":3,"store":"Mercado A"},"quantity":1}
]}`))
	if err != nil {
		t.Fatal(err)
	}
	res := suggest.NewEngine(suggest.DefaultConfig()).Analyze(sl.Items)
	if len(res.Skipped) != 1 {
		t.Fatalf("Skipped = %v, want one malformed item", res.Skipped)
	}

	var storeSwitch *suggest.Suggestion
	for i := range res.Suggestions {
		if res.Suggestions[i].Kind == suggest.KindStore && res.Suggestions[i].Action.ProductID == "4" {
			storeSwitch = &res.Suggestions[i]
		}
	}
	if storeSwitch == nil {
		t.Fatalf("expected a store suggestion for product 4, got %+v", res.Suggestions)
	}

	out, err := applySuggestions(sl, res.Suggestions, []string{storeSwitch.ID}, false)
	if err != nil {
		t.Fatalf("applySuggestions: %v", err)
	}
	if len(out.AppliedIDs) != 1 {
		t.Fatalf("AppliedIDs = %v, want the store switch", out.AppliedIDs)
	}
	if diff := out.Savings - storeSwitch.Savings; diff > 0.001 || diff < -0.001 {
		t.Errorf("Savings = %.2f, want %.2f", out.Savings, storeSwitch.Savings)
	}
	if len(out.Items) != len(sl.Items) {
		t.Fatalf("got %d items, want %d", len(out.Items), len(sl.Items))
	}
	if got := out.Items[2].Product.StoreName(); got != storeSwitch.Action.NewStore {
		t.Errorf("store = %q, want %q", got, storeSwitch.Action.NewStore)
	}
	if last := out.Items[len(out.Items)-1]; last.Product.ID != "9" {
		t.Errorf("malformed item not kept: %+v", last)
	}
}

func TestApplySuggestions_SavingsOnlyForCarriedOutChanges(t *testing.T) {
	sl, res := loadWeekly(t)
	stale := suggest.Suggestion{
		ID: "store-gone", Kind: suggest.KindStore, Item: "Café", Savings: 4,
		Action: suggest.Action{Kind: suggest.ActionChangeStore, ProductID: "gone", NewStore: "Atacadão"},
	}
	suggestions := append(append([]suggest.Suggestion(nil), res.Suggestions...), stale)

	out, err := applySuggestions(sl, suggestions, []string{"store-gone"}, false)
	if err != nil {
		t.Fatalf("applySuggestions: %v", err)
	}
	if len(out.AppliedIDs) != 0 || out.Savings != 0 {
		t.Errorf("AppliedIDs = %v, Savings = %.2f; want nothing applied", out.AppliedIDs, out.Savings)
	}
}

func TestApplySuggestions_UnknownID(t *testing.T) {
	sl, res := loadWeekly(t)
	if _, err := applySuggestions(sl, res.Suggestions, []string{"store-missing"}, false); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestApplySuggestions_All(t *testing.T) {
	sl, res := loadWeekly(t)

	out, err := applySuggestions(sl, res.Suggestions, nil, true)
	if err != nil {
		t.Fatalf("applySuggestions: %v", err)
	}
	if len(out.AppliedIDs) != len(res.Suggestions) {
		t.Errorf("applied %d, want %d", len(out.AppliedIDs), len(res.Suggestions))
	}

	var total float64
	for _, s := range res.Suggestions {
		total += s.Savings
	}
	if diff := out.Savings - total; diff > 0.001 || diff < -0.001 {
		t.Errorf("Savings = %.2f, want %.2f", out.Savings, total)
	}
	if out.Stats.Applied != len(res.Suggestions) {
		t.Errorf("Stats.Applied = %d, want %d", out.Stats.Applied, len(res.Suggestions))
	}
}

func TestSuggestionSummary(t *testing.T) {
	output.SetNoColor(true)
	defer output.SetNoColor(false)

	tests := []struct {
		s    suggest.Suggestion
		want string
	}{
		{
			s:    suggest.Suggestion{Kind: suggest.KindStore, SuggestedStore: "Atacadão", CurrentPrice: 80, SuggestedPrice: 72},
			want: "buy at Atacadão (R$ 80.00 -> R$ 72.00)",
		},
		{
			s:    suggest.Suggestion{Kind: suggest.KindQuantity, Action: suggest.Action{NewQuantity: 3}},
			want: "buy 3",
		},
		{
			s:    suggest.Suggestion{Kind: suggest.KindRoute, TimeSavedMinutes: 15, Action: suggest.Action{KeepStores: []string{"A", "B"}}},
			want: "shop at A, B, save 15 min",
		},
		{
			s:    suggest.Suggestion{Kind: "custom", Description: "from the service"},
			want: "from the service",
		},
	}
	for _, tt := range tests {
		if got := suggestionSummary(tt.s); got != tt.want {
			t.Errorf("suggestionSummary(%s) = %q, want %q", tt.s.Kind, got, tt.want)
		}
	}
}

func TestCheckEngine_Defaults(t *testing.T) {
	c := checkEngine(suggest.DefaultConfig())
	if !c.Passed {
		t.Errorf("expected engine check to pass: %s", c.Message)
	}
}

func TestCheckDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	if c := checkDatabase(path); c.Passed {
		t.Error("expected missing database to fail")
	}

	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	c := checkDatabase(path)
	if !c.Passed {
		t.Errorf("expected database check to pass: %s", c.Message)
	}
}

func TestCheckRemote(t *testing.T) {
	if c := checkRemote(context.Background(), config.Remote{}); !c.Passed {
		t.Errorf("unconfigured remote should pass: %s", c.Message)
	}

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if c := checkRemote(context.Background(), config.Remote{URL: healthy.URL, TimeoutSeconds: 1}); !c.Passed {
		t.Errorf("healthy remote should pass: %s", c.Message)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	if c := checkRemote(context.Background(), config.Remote{URL: broken.URL, TimeoutSeconds: 1}); c.Passed {
		t.Error("failing remote should not pass")
	}
}

func TestCheckConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, cfg := checkConfig("")
	if !c.Passed || cfg == nil {
		t.Fatalf("missing config file should fall back to defaults: %s", c.Message)
	}

	bad := writeList(t, "config.yaml", "analysis:\n  max_suggestions: 0\n")
	c, cfg = checkConfig(bad)
	if c.Passed || cfg != nil {
		t.Error("invalid config should fail")
	}
}

func TestAlertIcon_Levels(t *testing.T) {
	output.SetNoColor(true)
	defer output.SetNoColor(false)

	if alertIcon("critical") == alertIcon("warning") {
		t.Error("critical and warning alerts should look different")
	}
	if alertIcon("info") != checkMark() {
		t.Errorf("info icon = %q, want check mark", alertIcon("info"))
	}
	if alertIcon("unknown") != " " {
		t.Errorf("unknown icon = %q", alertIcon("unknown"))
	}
}
