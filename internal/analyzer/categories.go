package analyzer

import (
	"sort"
	"strings"

	"github.com/romuloroldao/precivox/internal/list"
)

// Category identifiers produced by DetectCategory.
const (
	CategoryStaples  = "staples"
	CategoryCleaning = "cleaning"
	CategoryDairy    = "dairy"
	CategoryMeat     = "meat"
	CategoryOther    = "other"
)

// categoryRule maps name keywords to a category.
type categoryRule struct {
	Category string
	Keywords []string
}

// categoryRules is ordered; the first rule with a matching keyword wins.
var categoryRules = []categoryRule{
	{CategoryStaples, []string{"arroz", "feijão", "feijao", "açúcar", "acucar", "óleo", "oleo", "farinha", "rice", "beans", "sugar", "oil", "flour"}},
	{CategoryCleaning, []string{"sabão", "sabao", "detergente", "amaciante", "esponja", "desinfetante", "soap", "detergent", "softener", "sponge", "bleach"}},
	{CategoryDairy, []string{"leite", "queijo", "iogurte", "manteiga", "milk", "cheese", "yogurt", "butter"}},
	{CategoryMeat, []string{"carne", "frango", "peixe", "beef", "chicken", "fish"}},
}

// bulkKeywords mark staple and cleaning goods that benefit from buying in
// quantity or at wholesale stores.
var bulkKeywords = []string{
	"sabão", "sabao", "detergente", "amaciante",
	"arroz", "açúcar", "acucar", "óleo", "oleo",
	"soap", "detergent", "softener", "rice", "sugar", "oil",
}

// DetectCategory infers a category from a product name by matching the
// lowercased name against the ordered keyword table.
func DetectCategory(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		if containsAny(lower, rule.Keywords) {
			return rule.Category
		}
	}
	return CategoryOther
}

// CategoryOf returns the product's explicit category, or the inferred one.
func CategoryOf(p list.Product) string {
	if c := strings.TrimSpace(p.Category); c != "" {
		return strings.ToLower(c)
	}
	return DetectCategory(p.Name)
}

// IsBulkFriendly reports whether a product name matches a bulk keyword.
func IsBulkFriendly(name string) bool {
	return containsAny(strings.ToLower(name), bulkKeywords)
}

// NameContainsAny reports whether the lowercased name contains any keyword.
func NameContainsAny(name string, keywords []string) bool {
	return containsAny(strings.ToLower(name), keywords)
}

// AnalyzeCategories groups items by category and returns the groups sorted
// by total value, highest first.
func AnalyzeCategories(items []list.Item) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup

	for _, it := range items {
		cat := CategoryOf(it.Product)
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, CategoryGroup{Category: cat})
		}
		g := &groups[i]
		g.Count += it.Quantity
		g.TotalValue += it.LineTotal()
		g.Items = append(g.Items, it)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].TotalValue > groups[j].TotalValue
	})
	return groups
}

// HasCategory reports whether any group carries the given category.
func HasCategory(groups []CategoryGroup, category string) bool {
	for _, g := range groups {
		if g.Category == category {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
