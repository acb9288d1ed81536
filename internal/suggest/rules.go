package suggest

import (
	"fmt"
	"math"
	"strings"

	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/list"
)

// StoreSwitch proposes moving expensive items that are not at the best store
// to the alternative store with the highest applicable discount.
func StoreSwitch(ctx *AnalysisContext) []Suggestion {
	cfg := ctx.Config
	best := analyzer.BestStore(ctx.Analyses.Stores)

	var candidates []list.Item
	for _, it := range analyzer.ExpensiveItems(ctx.Items, ctx.Analyses.Prices) {
		if len(candidates) >= cfg.MaxStoreSwitches {
			break
		}
		if it.Product.StoreName() == best || !it.Product.IsAvailable() {
			continue
		}
		candidates = append(candidates, it)
	}

	var suggestions []Suggestion
	for _, it := range candidates {
		p := it.Product
		bulk := analyzer.IsBulkFriendly(p.Name)
		alt, ok := bestAlternative(cfg.AlternativeStores, p.StoreName(), bulk)
		if !ok {
			continue
		}

		suggested := analyzer.Round2(p.Price * (1 - alt.Rate(bulk)))
		savings := analyzer.Round2((p.Price - suggested) * float64(it.Quantity))
		if savings <= cfg.MinSavingsThreshold {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			ID:   ID(KindStore, p.ID),
			Kind: KindStore,
			Item: p.Name,
			Description: fmt.Sprintf(
				"%s costs %.2f at %s. %s (%s) usually sells it for about %.2f, saving %.2f on %d unit(s).",
				p.Name, p.Price, p.StoreName(), alt.Name, alt.Specialty, suggested, savings, it.Quantity,
			),
			CurrentStore:   p.StoreName(),
			SuggestedStore: alt.Name,
			CurrentPrice:   p.Price,
			SuggestedPrice: suggested,
			Savings:        savings,
			Action: Action{
				Kind:      ActionChangeStore,
				ProductID: p.ID,
				NewStore:  alt.Name,
				NewPrice:  suggested,
			},
		})
	}
	return suggestions
}

// bestAlternative picks the profile with the highest rate for the product,
// excluding the current store. Ties go to the lexically smaller name.
func bestAlternative(profiles []StoreProfile, current string, bulk bool) (StoreProfile, bool) {
	var best StoreProfile
	found := false
	for _, p := range profiles {
		if strings.EqualFold(strings.TrimSpace(p.Name), current) || p.Rate(bulk) <= 0 {
			continue
		}
		switch {
		case !found:
			best, found = p, true
		case p.Rate(bulk) > best.Rate(bulk):
			best = p
		case p.Rate(bulk) == best.Rate(bulk) && p.Name < best.Name:
			best = p
		}
	}
	return best, found
}

// Bulk discount rates used by QuantityOptimizer.
const (
	bulkRate  = 0.08
	smallRate = 0.03
)

// QuantityOptimizer proposes buying more of cheap, bulk-friendly items that
// are bought in small quantities. Unavailable items are left alone.
func QuantityOptimizer(ctx *AnalysisContext) []Suggestion {
	cfg := ctx.Config
	limit := ctx.Analyses.Prices.AvgPrice * cfg.CheapPriceRatio

	var suggestions []Suggestion
	considered := 0
	for _, it := range ctx.Items {
		if considered == cfg.MaxQuantityChanges {
			break
		}
		p := it.Product
		bulk := analyzer.IsBulkFriendly(p.Name)
		if p.Price >= limit || it.Quantity > 2 || !bulk || !p.IsAvailable() {
			continue
		}
		considered++

		newQty := NextQuantity(it.Quantity)
		rate := smallRate
		if bulk && newQty >= 3 {
			rate = bulkRate
		}
		suggested := analyzer.Round2(p.Price * (1 - rate))
		savings := analyzer.Round2((p.Price - suggested) * float64(newQty))
		if savings <= cfg.MinSavingsThreshold {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			ID:   ID(KindQuantity, p.ID),
			Kind: KindQuantity,
			Item: p.Name,
			Description: fmt.Sprintf(
				"Buying %d instead of %d unlocks a %.0f%% bulk discount on %s.",
				newQty, it.Quantity, rate*100, p.Name,
			),
			CurrentStore:   p.StoreName(),
			SuggestedStore: p.StoreName(),
			CurrentPrice:   p.Price,
			SuggestedPrice: suggested,
			Savings:        savings,
			Action: Action{
				Kind:        ActionIncreaseQuantity,
				ProductID:   p.ID,
				NewQuantity: newQty,
			},
		})
	}
	return suggestions
}

// NextQuantity returns the proposed bulk quantity: half again the current
// quantity, rounded up, and at least one more than now.
func NextQuantity(q int) int {
	next := int(math.Ceil(float64(q) * 1.5))
	if next < q+1 {
		next = q + 1
	}
	return next
}

// ComplementRecommender proposes commonly paired products that are missing
// from categories present in the list. These carry no savings.
func ComplementRecommender(ctx *AnalysisContext) []Suggestion {
	cfg := ctx.Config

	var suggestions []Suggestion
	for _, c := range cfg.ComplementCatalog {
		if len(suggestions) == cfg.MaxComplements {
			break
		}
		if !analyzer.HasCategory(ctx.Analyses.Categories, c.TriggerCategory) {
			continue
		}
		if listMentions(ctx.Items, c.MissingKeywords) {
			continue
		}

		product := &list.Product{
			ID:       c.ID,
			Name:     c.Name,
			Price:    c.EstimatedPrice,
			Category: c.Category,
		}
		suggestions = append(suggestions, Suggestion{
			ID:   ID(KindComplement, c.ID),
			Kind: KindComplement,
			Item: c.Name,
			Description: fmt.Sprintf(
				"Your list has %s items but no %s. Add it for about %.2f.",
				c.TriggerCategory, strings.ToLower(c.Name), c.EstimatedPrice,
			),
			SuggestedPrice: c.EstimatedPrice,
			Action: Action{
				Kind:       ActionAddProduct,
				ProductID:  c.ID,
				NewProduct: product,
			},
		})
	}
	return suggestions
}

func listMentions(items []list.Item, keywords []string) bool {
	for _, it := range items {
		if analyzer.NameContainsAny(it.Product.Name, keywords) {
			return true
		}
	}
	return false
}

// RouteConsolidator proposes concentrating purchases in the top stores by
// value when the list spans more than two stores.
func RouteConsolidator(ctx *AnalysisContext) []Suggestion {
	cfg := ctx.Config
	stores := ctx.Analyses.Stores
	if len(stores) <= 2 || len(stores) <= cfg.KeepStores {
		return nil
	}

	keep := make([]string, 0, cfg.KeepStores)
	for _, g := range stores[:cfg.KeepStores] {
		keep = append(keep, g.Name)
	}
	dropped := stores[cfg.KeepStores:]

	savings := RouteSavings(dropped, cfg)
	if savings <= cfg.MinSavingsThreshold {
		return nil
	}
	minutes := len(dropped) * cfg.MinutesPerStore

	var movedValue float64
	for _, g := range dropped {
		movedValue += g.TotalValue
	}

	return []Suggestion{{
		ID:   ID(KindRoute, routeSubject),
		Kind: KindRoute,
		Item: "Shopping route",
		Description: fmt.Sprintf(
			"Your list spans %d stores. Buying at %s only skips %d store(s), saving about %d minutes and %.2f in fuel. Items worth %.2f need a new store.",
			len(stores), strings.Join(keep, " and "), len(dropped), minutes, savings, analyzer.Round2(movedValue),
		),
		CurrentStore:     fmt.Sprintf("%d stores", len(stores)),
		SuggestedStore:   strings.Join(keep, ", "),
		Savings:          savings,
		TimeSavedMinutes: minutes,
		Action: Action{
			Kind:       ActionOptimizeRoute,
			KeepStores: keep,
		},
	}}
}

// RouteSavings estimates the fuel saved by skipping the dropped stores. When
// every dropped store has distance data the estimate is distance-weighted,
// otherwise a flat cost per store applies.
func RouteSavings(dropped []analyzer.StoreGroup, cfg Config) float64 {
	var distance float64
	for _, g := range dropped {
		if !g.HasDistance {
			return analyzer.Round2(float64(len(dropped)) * cfg.FuelCostPerStore)
		}
		distance += g.DistanceKm
	}
	return analyzer.Round2(distance * cfg.RouteDistanceFactor * cfg.FuelCostPerKm)
}
