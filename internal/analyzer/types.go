// Package analyzer provides store, price, and category analysis of shopping
// lists and builds the aggregate analytics snapshot shown next to suggestions.
package analyzer

import "github.com/romuloroldao/precivox/internal/list"

// StoreGroup aggregates the items bought at one store.
type StoreGroup struct {
	// Name is the normalized store display name.
	Name string `json:"name"`

	// TotalValue is the sum of price x quantity for the store's items.
	TotalValue float64 `json:"total_value"`

	// ItemCount is the number of list lines assigned to the store.
	ItemCount int `json:"item_count"`

	// DistanceKm is the largest known distance among the store's items.
	DistanceKm float64 `json:"distance_km"`

	// HasDistance reports whether any item carried distance data.
	HasDistance bool `json:"has_distance"`

	// Items holds the store's items in list order.
	Items []list.Item `json:"-"`
}

// PriceStats summarizes the unit-price distribution of a list.
type PriceStats struct {
	AvgPrice float64 `json:"avg_price"`
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`

	// AvgLineTotal is the mean of price x quantity across lines.
	AvgLineTotal float64 `json:"avg_line_total"`
}

// CategoryGroup aggregates the items belonging to one category.
type CategoryGroup struct {
	Category string `json:"category"`

	// Count is the total quantity of items in the category.
	Count int `json:"count"`

	TotalValue float64     `json:"total_value"`
	Items      []list.Item `json:"-"`
}

// Snapshot is the aggregate analytics record for one list.
type Snapshot struct {
	TotalStores         int      `json:"total_stores"`
	TotalItems          int      `json:"total_items"`
	TotalCategories     int      `json:"total_categories"`
	TotalValue          float64  `json:"total_value"`
	PromotionItemCount  int      `json:"promotion_item_count"`
	PromotionSavings    float64  `json:"promotion_savings"`
	TotalDistanceKm     float64  `json:"total_distance_km"`
	EstimatedMinutes    int      `json:"estimated_minutes"`
	EstimatedFuelCost   float64  `json:"estimated_fuel_cost"`
	AveragePricePerItem float64  `json:"average_price_per_item"`
	BestStoreName       string   `json:"best_store_name"`
	BestStoreShare      float64  `json:"best_store_share_pct"`
	EfficiencyScore     float64  `json:"efficiency_score"`
	DominantCategories  []string `json:"dominant_categories"`
	Recommendation      string   `json:"recommendation"`
}

// Analyses bundles the three analyzer outputs so generators can share them.
type Analyses struct {
	Stores     []StoreGroup
	Prices     PriceStats
	Categories []CategoryGroup
}

// Analyze runs the store, price, and category analyzers over items.
func Analyze(items []list.Item) Analyses {
	return Analyses{
		Stores:     AnalyzeStores(items),
		Prices:     AnalyzePrices(items),
		Categories: AnalyzeCategories(items),
	}
}
