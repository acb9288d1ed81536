package analyzer

import "github.com/romuloroldao/precivox/internal/list"

// AnalyzePrices computes unit-price statistics. An empty list yields all
// zero values.
func AnalyzePrices(items []list.Item) PriceStats {
	var stats PriceStats
	if len(items) == 0 {
		return stats
	}

	stats.MinPrice = items[0].Product.Price
	stats.MaxPrice = items[0].Product.Price

	var sumPrice, sumTotal float64
	for _, it := range items {
		p := it.Product.Price
		sumPrice += p
		sumTotal += it.LineTotal()
		if p < stats.MinPrice {
			stats.MinPrice = p
		}
		if p > stats.MaxPrice {
			stats.MaxPrice = p
		}
	}

	n := float64(len(items))
	stats.AvgPrice = sumPrice / n
	stats.AvgLineTotal = sumTotal / n
	return stats
}

// ExpensiveItems returns the items priced above the list average, in list order.
func ExpensiveItems(items []list.Item, stats PriceStats) []list.Item {
	var out []list.Item
	for _, it := range items {
		if it.Product.Price > stats.AvgPrice {
			out = append(out, it)
		}
	}
	return out
}
