package analyzer

import (
	"math"

	"github.com/romuloroldao/precivox/internal/list"
)

// TravelModel holds the heuristics used to estimate shopping-trip cost.
type TravelModel struct {
	// MinutesPerStore is the time budget for visiting one store.
	MinutesPerStore int

	// FuelCostPerKm converts distance into currency.
	FuelCostPerKm float64

	// DefaultStoreDistanceKm is assumed for stores without distance data.
	DefaultStoreDistanceKm float64
}

// DefaultTravelModel is calibrated so a store at the default distance costs
// 3.50 in fuel.
var DefaultTravelModel = TravelModel{
	MinutesPerStore:        15,
	FuelCostPerKm:          1.40,
	DefaultStoreDistanceKm: 2.5,
}

// EfficiencyScore penalizes a list for each store it spans:
// max(0, 100 - 10 x stores). An empty list scores 0.
func EfficiencyScore(storeCount int) float64 {
	if storeCount == 0 {
		return 0
	}
	return math.Max(0, 100-float64(storeCount)*10)
}

// PromotionSavings sums (original - price) x quantity over promoted items.
// Promotions that do not lower the price contribute nothing.
func PromotionSavings(items []list.Item) (float64, int) {
	var total float64
	count := 0
	for _, it := range items {
		promo := it.Product.Promotion
		if promo == nil {
			continue
		}
		count++
		if diff := promo.OriginalPrice - it.Product.Price; diff > 0 {
			total += diff * float64(it.Quantity)
		}
	}
	return Round2(total), count
}

// StoreDistance returns the store's distance, or the model default.
func (m TravelModel) StoreDistance(g StoreGroup) float64 {
	if g.HasDistance {
		return g.DistanceKm
	}
	return m.DefaultStoreDistanceKm
}

// BuildSnapshot derives the analytics snapshot from items and their analyses.
func BuildSnapshot(items []list.Item, a Analyses, model TravelModel) Snapshot {
	snap := Snapshot{
		TotalStores:     len(a.Stores),
		TotalCategories: len(a.Categories),
		EfficiencyScore: EfficiencyScore(len(a.Stores)),
	}

	for _, it := range items {
		snap.TotalItems += it.Quantity
		snap.TotalValue += it.LineTotal()
	}
	snap.TotalValue = Round2(snap.TotalValue)

	snap.PromotionSavings, snap.PromotionItemCount = PromotionSavings(items)

	var distance float64
	for _, g := range a.Stores {
		distance += model.StoreDistance(g)
	}
	snap.TotalDistanceKm = Round2(distance)
	snap.EstimatedMinutes = len(a.Stores) * model.MinutesPerStore
	snap.EstimatedFuelCost = Round2(distance * model.FuelCostPerKm)

	if snap.TotalItems > 0 {
		snap.AveragePricePerItem = Round2(snap.TotalValue / float64(snap.TotalItems))
	}

	if len(a.Stores) > 0 {
		best := a.Stores[0]
		snap.BestStoreName = best.Name
		if snap.TotalValue > 0 {
			snap.BestStoreShare = Round2(best.TotalValue / snap.TotalValue * 100)
		}
	}

	for i, c := range a.Categories {
		if i == 3 {
			break
		}
		snap.DominantCategories = append(snap.DominantCategories, c.Category)
	}

	snap.Recommendation = Recommend(len(a.Stores), a.Categories, snap.TotalValue)
	return snap
}

// Recommend returns a one-line headline for the list.
func Recommend(storeCount int, categories []CategoryGroup, totalValue float64) string {
	top := categories
	if len(top) > 2 {
		top = top[:2]
	}

	switch {
	case storeCount == 0:
		return "Add items to your list to get recommendations"
	case storeCount > 3:
		return "Concentrate on 2-3 markets to save time and fuel"
	case totalValue > 200 && HasCategory(top, CategoryCleaning):
		return "Consider wholesale stores for cleaning products, savings of up to 15%"
	case HasCategory(top, CategoryStaples):
		return "Take advantage of staple promotions and buy in quantity"
	default:
		return "Balanced list, review the suggested optimizations"
	}
}

// Round2 rounds a currency amount to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
