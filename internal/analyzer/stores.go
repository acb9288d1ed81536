package analyzer

import (
	"sort"

	"github.com/romuloroldao/precivox/internal/list"
)

// AnalyzeStores groups items by store and returns the groups sorted by total
// value, highest first. Ties keep first-appearance order.
func AnalyzeStores(items []list.Item) []StoreGroup {
	index := make(map[string]int)
	var groups []StoreGroup

	for _, it := range items {
		name := it.Product.StoreName()
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, StoreGroup{Name: name})
		}

		g := &groups[i]
		g.TotalValue += it.LineTotal()
		g.ItemCount++
		g.Items = append(g.Items, it)
		if it.Product.HasDistance() {
			if !g.HasDistance || *it.Product.DistanceKm > g.DistanceKm {
				g.DistanceKm = *it.Product.DistanceKm
			}
			g.HasDistance = true
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].TotalValue > groups[j].TotalValue
	})
	return groups
}

// BestStore returns the highest-value store name, or "" for an empty list.
func BestStore(groups []StoreGroup) string {
	if len(groups) == 0 {
		return ""
	}
	return groups[0].Name
}
