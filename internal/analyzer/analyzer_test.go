package analyzer

import (
	"math"
	"testing"

	"github.com/romuloroldao/precivox/internal/list"
)

func item(id, name, store string, price float64, qty int) list.Item {
	return list.Item{
		Product:  list.Product{ID: id, Name: name, Price: price, Store: list.StoreRef(store)},
		Quantity: qty,
	}
}

func withDistance(it list.Item, km float64) list.Item {
	it.Product.DistanceKm = &km
	return it
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

// --- AnalyzeStores ---

func TestAnalyzeStores_GroupsAndSorts(t *testing.T) {
	items := []list.Item{
		item("1", "Arroz", "A", 10, 1),
		item("2", "Feijão", "B", 8, 3),
		item("3", "Leite", "A", 5, 1),
	}

	groups := AnalyzeStores(items)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "B" || !approx(groups[0].TotalValue, 24) {
		t.Errorf("first group = %s %.2f, want B 24.00", groups[0].Name, groups[0].TotalValue)
	}
	if groups[1].Name != "A" || groups[1].ItemCount != 2 || !approx(groups[1].TotalValue, 15) {
		t.Errorf("second group = %+v, want A with 2 items and 15.00", groups[1])
	}
}

func TestAnalyzeStores_DistanceTakesMaximum(t *testing.T) {
	items := []list.Item{
		withDistance(item("1", "Arroz", "A", 10, 1), 1.5),
		withDistance(item("2", "Sabão", "A", 4, 1), 3.0),
		item("3", "Leite", "B", 5, 1),
	}
	groups := AnalyzeStores(items)
	for _, g := range groups {
		switch g.Name {
		case "A":
			if !g.HasDistance || !approx(g.DistanceKm, 3.0) {
				t.Errorf("store A distance = %.2f (has=%v), want 3.0", g.DistanceKm, g.HasDistance)
			}
		case "B":
			if g.HasDistance {
				t.Error("store B should have no distance data")
			}
		}
	}
}

func TestAnalyzeStores_Empty(t *testing.T) {
	if groups := AnalyzeStores(nil); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
	if BestStore(nil) != "" {
		t.Error("BestStore of empty groups should be empty")
	}
}

// --- AnalyzePrices ---

func TestAnalyzePrices_Empty(t *testing.T) {
	stats := AnalyzePrices(nil)
	for name, v := range map[string]float64{
		"avg": stats.AvgPrice, "min": stats.MinPrice, "max": stats.MaxPrice, "avgLine": stats.AvgLineTotal,
	} {
		if v != 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s = %v, want 0", name, v)
		}
	}
}

func TestAnalyzePrices_Stats(t *testing.T) {
	items := []list.Item{
		item("1", "a", "X", 2, 1),
		item("2", "b", "X", 10, 2),
		item("3", "c", "X", 6, 1),
	}
	stats := AnalyzePrices(items)
	if !approx(stats.AvgPrice, 6) {
		t.Errorf("AvgPrice = %.3f, want 6", stats.AvgPrice)
	}
	if stats.MinPrice != 2 || stats.MaxPrice != 10 {
		t.Errorf("min/max = %.2f/%.2f, want 2/10", stats.MinPrice, stats.MaxPrice)
	}
	// (2 + 20 + 6) / 3
	if !approx(stats.AvgLineTotal, 28.0/3.0) {
		t.Errorf("AvgLineTotal = %.3f, want %.3f", stats.AvgLineTotal, 28.0/3.0)
	}

	expensive := ExpensiveItems(items, stats)
	if len(expensive) != 1 || expensive[0].Product.ID != "2" {
		t.Errorf("expected only item 2 to be expensive, got %+v", expensive)
	}
}

// --- Categories ---

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Arroz Tio João 5kg", CategoryStaples},
		{"FEIJÃO CARIOCA", CategoryStaples},
		{"Detergente Ypê", CategoryCleaning},
		{"Leite Integral", CategoryDairy},
		{"Peito de Frango", CategoryMeat},
		{"Chocolate", CategoryOther},
		{"", CategoryOther},
		// First match wins: "óleo" is checked before "sabão".
		{"Sabão de óleo", CategoryStaples},
	}
	for _, tc := range tests {
		if got := DetectCategory(tc.name); got != tc.want {
			t.Errorf("DetectCategory(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCategoryOf_ExplicitWins(t *testing.T) {
	p := list.Product{Name: "Arroz", Category: "Promo"}
	if got := CategoryOf(p); got != "promo" {
		t.Errorf("CategoryOf = %q, want promo", got)
	}
}

func TestIsBulkFriendly(t *testing.T) {
	if !IsBulkFriendly("Amaciante Comfort 2L") {
		t.Error("amaciante should be bulk friendly")
	}
	if IsBulkFriendly("Leite") {
		t.Error("leite should not be bulk friendly")
	}
}

func TestAnalyzeCategories_SortedByValue(t *testing.T) {
	items := []list.Item{
		item("1", "Leite", "X", 4, 2),
		item("2", "Arroz", "X", 20, 1),
		item("3", "Feijão", "X", 8, 1),
	}
	groups := AnalyzeCategories(items)
	if len(groups) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(groups))
	}
	if groups[0].Category != CategoryStaples || groups[0].Count != 2 || !approx(groups[0].TotalValue, 28) {
		t.Errorf("first category = %+v", groups[0])
	}
	if !HasCategory(groups, CategoryDairy) || HasCategory(groups, CategoryMeat) {
		t.Error("HasCategory mismatch")
	}
}

// --- Snapshot ---

func TestBuildSnapshot_SingleStore(t *testing.T) {
	items := []list.Item{item("a", "Produto A", "X", 10, 1)}
	snap := BuildSnapshot(items, Analyze(items), DefaultTravelModel)

	if snap.TotalStores != 1 {
		t.Errorf("TotalStores = %d, want 1", snap.TotalStores)
	}
	if snap.EfficiencyScore != 90 {
		t.Errorf("EfficiencyScore = %.1f, want 90", snap.EfficiencyScore)
	}
	if snap.BestStoreName != "X" || snap.BestStoreShare != 100 {
		t.Errorf("best store = %s %.1f%%, want X 100%%", snap.BestStoreName, snap.BestStoreShare)
	}
	if snap.EstimatedMinutes != 15 || !approx(snap.EstimatedFuelCost, 3.5) || !approx(snap.TotalDistanceKm, 2.5) {
		t.Errorf("travel = %d min, %.2f fuel, %.2f km", snap.EstimatedMinutes, snap.EstimatedFuelCost, snap.TotalDistanceKm)
	}
}

func TestBuildSnapshot_PromotionSavings(t *testing.T) {
	promoted := item("p", "Café", "X", 8, 2)
	promoted.Product.Promotion = &list.Promotion{OriginalPrice: 10}
	items := []list.Item{promoted, item("q", "Pão", "X", 5, 1)}

	snap := BuildSnapshot(items, Analyze(items), DefaultTravelModel)
	if snap.PromotionSavings != 4 {
		t.Errorf("PromotionSavings = %.2f, want 4", snap.PromotionSavings)
	}
	if snap.PromotionItemCount != 1 {
		t.Errorf("PromotionItemCount = %d, want 1", snap.PromotionItemCount)
	}
}

func TestPromotionSavings_NeverNegative(t *testing.T) {
	odd := item("p", "Café", "X", 12, 1)
	odd.Product.Promotion = &list.Promotion{OriginalPrice: 10}
	got, _ := PromotionSavings([]list.Item{odd, item("q", "Pão", "X", 5, 1)})
	if got != 0 {
		t.Errorf("PromotionSavings = %.2f, want 0", got)
	}
}

func TestBuildSnapshot_Empty(t *testing.T) {
	snap := BuildSnapshot(nil, Analyze(nil), DefaultTravelModel)
	if snap.TotalStores != 0 || snap.EfficiencyScore != 0 || snap.AveragePricePerItem != 0 {
		t.Errorf("unexpected non-zero snapshot: %+v", snap)
	}
	if snap.BestStoreName != "" {
		t.Errorf("BestStoreName = %q, want empty", snap.BestStoreName)
	}
}

func TestBuildSnapshot_KnownDistances(t *testing.T) {
	items := []list.Item{
		withDistance(item("1", "Arroz", "A", 10, 1), 1.0),
		withDistance(item("2", "Sabão", "B", 4, 1), 4.0),
	}
	snap := BuildSnapshot(items, Analyze(items), DefaultTravelModel)
	if !approx(snap.TotalDistanceKm, 5.0) {
		t.Errorf("TotalDistanceKm = %.2f, want 5", snap.TotalDistanceKm)
	}
	if !approx(snap.EstimatedFuelCost, 7.0) {
		t.Errorf("EstimatedFuelCost = %.2f, want 7", snap.EstimatedFuelCost)
	}
}

func TestEfficiencyScore_FloorsAtZero(t *testing.T) {
	if got := EfficiencyScore(12); got != 0 {
		t.Errorf("EfficiencyScore(12) = %.1f, want 0", got)
	}
	if got := EfficiencyScore(3); got != 70 {
		t.Errorf("EfficiencyScore(3) = %.1f, want 70", got)
	}
}

func TestRecommend(t *testing.T) {
	cleaning := []CategoryGroup{{Category: CategoryCleaning}}
	staples := []CategoryGroup{{Category: CategoryOther}, {Category: CategoryStaples}}

	if got := Recommend(5, nil, 0); got != "Concentrate on 2-3 markets to save time and fuel" {
		t.Errorf("many stores: %q", got)
	}
	if got := Recommend(2, cleaning, 250); got == Recommend(2, cleaning, 50) {
		t.Error("high-value cleaning list should get the wholesale recommendation")
	}
	if got := Recommend(1, staples, 30); got != "Take advantage of staple promotions and buy in quantity" {
		t.Errorf("staples: %q", got)
	}
}
