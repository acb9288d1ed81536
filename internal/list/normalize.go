package list

import (
	"math"
	"strings"
)

// Issue records an item that was skipped during normalization.
type Issue struct {
	Index     int    `json:"index"`
	ProductID string `json:"product_id,omitempty"`
	Reason    string `json:"reason"`
}

// Normalize trims identifying fields and drops malformed items. It returns
// the usable items in their original order and one Issue per dropped item.
// The input slice is not modified.
func Normalize(items []Item) ([]Item, []Issue) {
	valid := make([]Item, 0, len(items))
	var issues []Issue

	for i, it := range items {
		p := it.Product
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.Category = strings.TrimSpace(p.Category)
		p.Store = StoreRef(strings.TrimSpace(string(p.Store)))

		if reason := validate(p, it.Quantity); reason != "" {
			issues = append(issues, Issue{Index: i, ProductID: p.ID, Reason: reason})
			continue
		}

		valid = append(valid, Item{Product: p, Quantity: it.Quantity})
	}

	return valid, issues
}

func validate(p Product, quantity int) string {
	switch {
	case p.ID == "":
		return "missing product id"
	case p.Name == "":
		return "missing product name"
	case p.Store == "":
		return "missing store"
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return "price is not a finite number"
	case p.Price <= 0:
		return "price must be positive"
	case quantity < 1:
		return "quantity must be at least 1"
	case p.DistanceKm != nil && (*p.DistanceKm < 0 || math.IsNaN(*p.DistanceKm)):
		return "distance must be non-negative"
	}
	return ""
}
