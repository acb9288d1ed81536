package suggest

import "github.com/romuloroldao/precivox/internal/analyzer"

// Config holds the thresholds and static tables used by the generators and
// the aggregator.
type Config struct {
	// MinSavingsThreshold is the amount a non-complement suggestion must
	// strictly exceed to be surfaced.
	MinSavingsThreshold float64 `mapstructure:"min_savings_threshold" json:"min_savings_threshold" yaml:"min_savings_threshold"`
	MaxSuggestions      int     `mapstructure:"max_suggestions" json:"max_suggestions" yaml:"max_suggestions"`

	MaxStoreSwitches   int     `mapstructure:"max_store_switches" json:"max_store_switches" yaml:"max_store_switches"`
	MaxQuantityChanges int     `mapstructure:"max_quantity_changes" json:"max_quantity_changes" yaml:"max_quantity_changes"`
	MaxComplements     int     `mapstructure:"max_complements" json:"max_complements" yaml:"max_complements"`
	CheapPriceRatio    float64 `mapstructure:"cheap_price_ratio" json:"cheap_price_ratio" yaml:"cheap_price_ratio"`

	// KeepStores is how many top stores a route consolidation keeps.
	KeepStores          int     `mapstructure:"keep_stores" json:"keep_stores" yaml:"keep_stores"`
	MinutesPerStore     int     `mapstructure:"minutes_per_store" json:"minutes_per_store" yaml:"minutes_per_store"`
	FuelCostPerStore    float64 `mapstructure:"fuel_cost_per_store" json:"fuel_cost_per_store" yaml:"fuel_cost_per_store"`
	FuelCostPerKm       float64 `mapstructure:"fuel_cost_per_km" json:"fuel_cost_per_km" yaml:"fuel_cost_per_km"`
	RouteDistanceFactor float64 `mapstructure:"route_distance_factor" json:"route_distance_factor" yaml:"route_distance_factor"`

	AlternativeStores []StoreProfile `mapstructure:"alternative_stores" json:"alternative_stores" yaml:"alternative_stores"`
	ComplementCatalog []Complement   `mapstructure:"complement_catalog" json:"complement_catalog" yaml:"complement_catalog"`
}

// DefaultStores is the built-in alternative store table.
var DefaultStores = []StoreProfile{
	{Name: "Assaí Atacadista", Specialty: "wholesale", BulkRate: 0.23, GeneralRate: 0.06},
	{Name: "Atacadão Franco da Rocha", Specialty: "wholesale", BulkRate: 0.20, GeneralRate: 0.05},
	{Name: "Extra Hiper Franco", Specialty: "hypermarket", BulkRate: 0.08, GeneralRate: 0.08},
	{Name: "Carrefour Express", Specialty: "convenience", BulkRate: 0.05, GeneralRate: 0.05},
	{Name: "Vila Nova Supermercado", Specialty: "neighborhood", BulkRate: 0.12, GeneralRate: 0.10},
}

// DefaultComplements is the built-in catalog of commonly paired products.
var DefaultComplements = []Complement{
	{
		ID:              "comp-esponja",
		Name:            "Esponja de Limpeza",
		Category:        analyzer.CategoryCleaning,
		EstimatedPrice:  2.99,
		TriggerCategory: analyzer.CategoryCleaning,
		MissingKeywords: []string{"esponja", "sponge"},
	},
	{
		ID:              "comp-oleo",
		Name:            "Óleo de Soja",
		Category:        analyzer.CategoryStaples,
		EstimatedPrice:  4.50,
		TriggerCategory: analyzer.CategoryStaples,
		MissingKeywords: []string{"óleo", "oleo", "oil"},
	},
}

// DefaultConfig returns a Config with the built-in thresholds and tables.
func DefaultConfig() Config {
	return Config{
		MinSavingsThreshold: 1.0,
		MaxSuggestions:      6,
		MaxStoreSwitches:    3,
		MaxQuantityChanges:  2,
		MaxComplements:      2,
		CheapPriceRatio:     0.8,
		KeepStores:          2,
		MinutesPerStore:     15,
		FuelCostPerStore:    3.50,
		FuelCostPerKm:       1.40,
		RouteDistanceFactor: 0.8,
		AlternativeStores:   append([]StoreProfile(nil), DefaultStores...),
		ComplementCatalog:   append([]Complement(nil), DefaultComplements...),
	}
}

// withDefaults fills limits that must be positive.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = d.MaxSuggestions
	}
	if c.KeepStores <= 0 {
		c.KeepStores = d.KeepStores
	}
	if c.MinutesPerStore <= 0 {
		c.MinutesPerStore = d.MinutesPerStore
	}
	if c.FuelCostPerKm <= 0 {
		c.FuelCostPerKm = d.FuelCostPerKm
	}
	return c
}

// TravelModel returns the snapshot travel heuristics matching this config.
// A store without distance data is assumed to cost FuelCostPerStore.
func (c Config) TravelModel() analyzer.TravelModel {
	c = c.withDefaults()
	return analyzer.TravelModel{
		MinutesPerStore:        c.MinutesPerStore,
		FuelCostPerKm:          c.FuelCostPerKm,
		DefaultStoreDistanceKm: c.FuelCostPerStore / c.FuelCostPerKm,
	}
}
