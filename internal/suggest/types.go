// Package suggest provides the shopping-list suggestion generators, the
// aggregator that ranks their output, and the engine tying both to the
// analyzers.
package suggest

import (
	"fmt"

	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/list"
)

// Kind identifies which generator produced a suggestion.
type Kind string

const (
	KindStore      Kind = "store"
	KindQuantity   Kind = "quantity"
	KindComplement Kind = "complement"
	KindRoute      Kind = "route"
)

// ActionKind tags the list mutation a suggestion describes.
type ActionKind string

const (
	ActionChangeStore      ActionKind = "change_store"
	ActionIncreaseQuantity ActionKind = "increase_quantity"
	ActionAddProduct       ActionKind = "add_product"
	ActionOptimizeRoute    ActionKind = "optimize_route"
)

// Impact tiers, most important first.
const (
	ImpactHigh   = 1
	ImpactMedium = 2
	ImpactLow    = 3
)

// ImpactLabel returns the display label for an impact tier.
func ImpactLabel(impact int) string {
	switch impact {
	case ImpactHigh:
		return "high"
	case ImpactMedium:
		return "medium"
	case ImpactLow:
		return "low"
	default:
		return "unknown"
	}
}

// Action is the recommended mutation of the caller's list. Only the fields
// relevant to Kind are set.
type Action struct {
	Kind        ActionKind    `json:"kind"`
	ProductID   string        `json:"product_id,omitempty"`
	NewStore    string        `json:"new_store,omitempty"`
	NewPrice    float64       `json:"new_price,omitempty"`
	NewQuantity int           `json:"new_quantity,omitempty"`
	NewProduct  *list.Product `json:"new_product,omitempty"`
	KeepStores  []string      `json:"keep_stores,omitempty"`
}

// Suggestion is one actionable recommendation for a shopping list.
type Suggestion struct {
	ID               string  `json:"id"`
	Kind             Kind    `json:"kind"`
	Item             string  `json:"item"`
	Description      string  `json:"description"`
	CurrentStore     string  `json:"current_store"`
	SuggestedStore   string  `json:"suggested_store"`
	CurrentPrice     float64 `json:"current_price"`
	SuggestedPrice   float64 `json:"suggested_price"`
	Savings          float64 `json:"savings"`
	TimeSavedMinutes int     `json:"time_saved_minutes,omitempty"`
	Impact           int     `json:"impact"`
	Applied          bool    `json:"applied"`
	Action           Action  `json:"action"`
}

// ID derives the stable suggestion id for a kind and subject product, so
// analyzing an unchanged list yields the same ids.
func ID(kind Kind, productID string) string {
	return fmt.Sprintf("%s-%s", kind, productID)
}

// routeSubject is the fixed subject of the list-wide route suggestion.
const routeSubject = "list"

// AnalysisContext provides all data needed by generators. It is built once
// per analysis from the normalized items.
type AnalysisContext struct {
	// Items is the normalized list in original order.
	Items []list.Item

	// Analyses holds the store, price, and category analyses of Items.
	Analyses analyzer.Analyses

	// Config carries thresholds and the store and complement tables.
	Config Config
}

// Generator examines the analysis context and produces zero or more
// suggestions. Generators must not modify the context.
type Generator func(ctx *AnalysisContext) []Suggestion

// StoreProfile describes an alternative store and its expected discounts.
type StoreProfile struct {
	Name      string `mapstructure:"name" json:"name" yaml:"name"`
	Specialty string `mapstructure:"specialty" json:"specialty" yaml:"specialty"`

	// BulkRate applies to bulk-friendly products.
	BulkRate float64 `mapstructure:"bulk_rate" json:"bulk_rate" yaml:"bulk_rate"`

	// GeneralRate applies to everything else.
	GeneralRate float64 `mapstructure:"general_rate" json:"general_rate" yaml:"general_rate"`
}

// Rate returns the discount the store offers for a product.
func (p StoreProfile) Rate(bulkFriendly bool) float64 {
	if bulkFriendly {
		return p.BulkRate
	}
	return p.GeneralRate
}

// Complement is a commonly paired product offered when a list has items of
// TriggerCategory but none whose name matches MissingKeywords.
type Complement struct {
	ID              string   `mapstructure:"id" json:"id" yaml:"id"`
	Name            string   `mapstructure:"name" json:"name" yaml:"name"`
	Category        string   `mapstructure:"category" json:"category" yaml:"category"`
	EstimatedPrice  float64  `mapstructure:"estimated_price" json:"estimated_price" yaml:"estimated_price"`
	TriggerCategory string   `mapstructure:"trigger_category" json:"trigger_category" yaml:"trigger_category"`
	MissingKeywords []string `mapstructure:"missing_keywords" json:"missing_keywords" yaml:"missing_keywords"`
}

// Result is the output of one analysis.
type Result struct {
	Analytics   analyzer.Snapshot `json:"analytics"`
	Suggestions []Suggestion      `json:"suggestions"`
	Skipped     []list.Issue      `json:"skipped,omitempty"`
	Source      string            `json:"source"`
	Confidence  float64           `json:"confidence,omitempty"`
	Insights    []string          `json:"insights,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}
