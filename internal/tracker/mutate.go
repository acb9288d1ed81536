package tracker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/romuloroldao/precivox/internal/analyzer"
	"github.com/romuloroldao/precivox/internal/list"
	"github.com/romuloroldao/precivox/internal/suggest"
)

var (
	// ErrProductNotFound is returned when a suggestion refers to a product
	// that is not on the list, usually because the list changed since the
	// analysis ran.
	ErrProductNotFound = errors.New("product not found in list")

	// ErrUnsupportedAction is returned for action kinds the list cannot carry out.
	ErrUnsupportedAction = errors.New("unsupported action")
)

// ApplyToList carries out a suggestion's action on a copy of items and
// returns the new list with human-readable change notes. The input slice is
// never modified.
func ApplyToList(items []list.Item, s suggest.Suggestion) ([]list.Item, []string, error) {
	out := make([]list.Item, len(items))
	copy(out, items)

	switch s.Action.Kind {
	case suggest.ActionChangeStore:
		return changeStore(out, s)
	case suggest.ActionIncreaseQuantity:
		return increaseQuantity(out, s)
	case suggest.ActionAddProduct:
		return addProduct(out, s)
	case suggest.ActionOptimizeRoute:
		return optimizeRoute(out, s)
	default:
		return items, nil, fmt.Errorf("%w: %q", ErrUnsupportedAction, s.Action.Kind)
	}
}

func changeStore(items []list.Item, s suggest.Suggestion) ([]list.Item, []string, error) {
	newStore := s.Action.NewStore
	if newStore == "" {
		newStore = s.SuggestedStore
	}
	if newStore == "" {
		return nil, nil, fmt.Errorf("%w: change_store without a store", ErrUnsupportedAction)
	}
	newPrice := s.Action.NewPrice
	if newPrice <= 0 {
		newPrice = s.SuggestedPrice
	}

	var changes []string
	for i := range items {
		p := &items[i].Product
		if p.ID != s.Action.ProductID {
			continue
		}
		changes = append(changes,
			fmt.Sprintf("%s: %s -> %s", p.Name, p.StoreName(), newStore),
			fmt.Sprintf("Price: %.2f -> %.2f", p.Price, newPrice),
		)
		p.Store = list.StoreRef(newStore)
		if newPrice > 0 {
			p.Price = newPrice
		}
		// The distance belonged to the old store.
		p.DistanceKm = nil
	}
	if changes == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrProductNotFound, s.Action.ProductID)
	}
	return items, changes, nil
}

func increaseQuantity(items []list.Item, s suggest.Suggestion) ([]list.Item, []string, error) {
	found := false
	var changes []string
	for i := range items {
		it := &items[i]
		if it.Product.ID != s.Action.ProductID {
			continue
		}
		found = true
		if s.Action.NewQuantity > it.Quantity {
			changes = append(changes, fmt.Sprintf("%s: quantity %d -> %d", it.Product.Name, it.Quantity, s.Action.NewQuantity))
			it.Quantity = s.Action.NewQuantity
		}
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: %s", ErrProductNotFound, s.Action.ProductID)
	}
	return items, changes, nil
}

// addProduct appends the suggested product with quantity 1. A product
// without a store is placed at the list's highest-value store.
func addProduct(items []list.Item, s suggest.Suggestion) ([]list.Item, []string, error) {
	if s.Action.NewProduct == nil {
		return nil, nil, fmt.Errorf("%w: add_product without a product", ErrUnsupportedAction)
	}
	p := *s.Action.NewProduct

	for _, it := range items {
		if it.Product.ID == p.ID {
			return items, []string{fmt.Sprintf("%s is already on the list", p.Name)}, nil
		}
	}

	if p.StoreName() == "" {
		store := s.SuggestedStore
		if store == "" {
			store = analyzer.BestStore(analyzer.AnalyzeStores(items))
		}
		p.Store = list.StoreRef(store)
	}

	items = append(items, list.Item{Product: p, Quantity: 1})
	note := fmt.Sprintf("Added %s", p.Name)
	if p.StoreName() != "" {
		note = fmt.Sprintf("Added %s at %s", p.Name, p.StoreName())
	}
	return items, []string{note}, nil
}

// optimizeRoute groups items by store, visiting kept stores first in the
// given order, then the remaining stores by value. Item order within a store
// is preserved.
func optimizeRoute(items []list.Item, s suggest.Suggestion) ([]list.Item, []string, error) {
	rank := make(map[string]int)
	for _, name := range s.Action.KeepStores {
		if _, ok := rank[name]; !ok {
			rank[name] = len(rank)
		}
	}
	kept := len(rank)

	var moved []string
	for _, g := range analyzer.AnalyzeStores(items) {
		if _, ok := rank[g.Name]; ok {
			continue
		}
		rank[g.Name] = len(rank)
		if kept > 0 {
			moved = append(moved, g.Name)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return rank[items[i].Product.StoreName()] < rank[items[j].Product.StoreName()]
	})

	changes := []string{"Route optimized: items grouped by store"}
	for _, name := range moved {
		changes = append(changes, fmt.Sprintf("Consider buying the items from %s at a kept store", name))
	}
	if s.TimeSavedMinutes > 0 {
		changes = append(changes, fmt.Sprintf("Estimated time saved: %d minutes", s.TimeSavedMinutes))
	}
	return items, changes, nil
}

// Materialize applies every applied suggestion of t to items, in the
// tracker's order, and returns the resulting list with its change notes.
// Suggestions whose product is no longer on the list are skipped with a note.
func Materialize(items []list.Item, t *Tracker) ([]list.Item, []string) {
	out, notes, _ := materialize(items, t)
	return out, notes
}

// Commit is Materialize for callers that persist the result: applied
// suggestions that could not be carried out are un-applied, so the
// tracker's savings count only the changes present in the returned list.
func Commit(items []list.Item, t *Tracker) ([]list.Item, []string) {
	out, notes, failed := materialize(items, t)
	for _, id := range failed {
		t.Remove(id)
	}
	return out, notes
}

func materialize(items []list.Item, t *Tracker) ([]list.Item, []string, []string) {
	out := append([]list.Item(nil), items...)
	var notes, failed []string
	for _, s := range t.Suggestions() {
		if !s.Applied {
			continue
		}
		next, n, err := ApplyToList(out, s)
		if err != nil {
			notes = append(notes, fmt.Sprintf("Skipped %s: %v", s.ID, err))
			failed = append(failed, s.ID)
			continue
		}
		out = next
		notes = append(notes, n...)
	}
	return out, notes, failed
}
