// Package list defines the shopping-list data model and the input boundary
// where raw lists are decoded, normalized and validated before analysis.
package list

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ShoppingList is a named, ordered sequence of items as stored on disk.
type ShoppingList struct {
	Name  string `json:"name" yaml:"name"`
	Items []Item `json:"items" yaml:"items"`
}

// Item is one line of a shopping list. The product is held by value so
// analysis never aliases the caller's data.
type Item struct {
	Product  Product `json:"product" yaml:"product"`
	Quantity int     `json:"quantity" yaml:"quantity"`
}

// Product is a priced product offered by a single store.
type Product struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Brand      string     `json:"brand,omitempty" yaml:"brand,omitempty"`
	Price      float64    `json:"price" yaml:"price"`
	Category   string     `json:"category,omitempty" yaml:"category,omitempty"`
	Store      StoreRef   `json:"store" yaml:"store"`
	Promotion  *Promotion `json:"promotion,omitempty" yaml:"promotion,omitempty"`
	Available  *bool      `json:"available,omitempty" yaml:"available,omitempty"`
	DistanceKm *float64   `json:"distance_km,omitempty" yaml:"distance_km,omitempty"`
}

// Promotion describes an active discount on a product.
type Promotion struct {
	DiscountPercent float64 `json:"discount_percent,omitempty" yaml:"discount_percent,omitempty"`
	OriginalPrice   float64 `json:"original_price" yaml:"original_price"`
	ValidUntil      string  `json:"valid_until,omitempty" yaml:"valid_until,omitempty"`
}

// StoreName returns the normalized store display name.
func (p Product) StoreName() string {
	return string(p.Store)
}

// IsAvailable reports whether the product is available. Missing availability
// data counts as available.
func (p Product) IsAvailable() bool {
	return p.Available == nil || *p.Available
}

// HasDistance reports whether the product carries distance data.
func (p Product) HasDistance() bool {
	return p.DistanceKm != nil
}

// LineTotal returns price times quantity.
func (it Item) LineTotal() float64 {
	return it.Product.Price * float64(it.Quantity)
}

// StoreRef is a store display name. Older list exports encode the store
// either as a plain string or as an object with a "name" (or "nome") field;
// both decode to the same trimmed string.
type StoreRef string

type storeObject struct {
	Name string `json:"name" yaml:"name"`
	Nome string `json:"nome" yaml:"nome"`
}

func (o storeObject) value() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Nome
}

// UnmarshalJSON accepts a string or an object form.
func (s *StoreRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var obj storeObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decoding store object: %w", err)
		}
		*s = StoreRef(strings.TrimSpace(obj.value()))
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("decoding store name: %w", err)
	}
	*s = StoreRef(strings.TrimSpace(name))
	return nil
}

// UnmarshalYAML accepts a scalar or a mapping form.
func (s *StoreRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var obj storeObject
		if err := node.Decode(&obj); err != nil {
			return fmt.Errorf("decoding store mapping: %w", err)
		}
		*s = StoreRef(strings.TrimSpace(obj.value()))
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*s = ""
			return nil
		}
		*s = StoreRef(strings.TrimSpace(node.Value))
	default:
		return fmt.Errorf("store must be a string or a mapping, got yaml kind %d", node.Kind)
	}
	return nil
}
