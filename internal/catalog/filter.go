package catalog

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultTaxonomy is the ordered category allow-list used when none is configured.
var DefaultTaxonomy = []string{"Dresses", "Tops", "Bottoms", "Outerwear", "Knits", "Accessories"}

// Taxonomy is an ordered allow-list of tags that are offered as categories.
type Taxonomy struct {
	categories []string
}

// NewTaxonomy builds a taxonomy from categories, dropping blanks and duplicates
// while keeping first-seen order. An empty input falls back to DefaultTaxonomy.
func NewTaxonomy(categories []string) Taxonomy {
	seen := make(map[string]struct{}, len(categories))
	clean := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		clean = append(clean, c)
	}
	if len(clean) == 0 {
		clean = append(clean, DefaultTaxonomy...)
	}
	return Taxonomy{categories: clean}
}

// Categories returns a copy of the allow-list in order.
func (t Taxonomy) Categories() []string {
	return append([]string(nil), t.categories...)
}

// Allows reports whether category is part of the allow-list.
func (t Taxonomy) Allows(category string) bool {
	for _, c := range t.categories {
		if c == category {
			return true
		}
	}
	return false
}

// FilteredProducts applies the collection selector and then the category selector.
// The input slice is never modified and the result keeps the input order. A selected
// collection that is not in collections yields an empty result.
func FilteredProducts(products []Product, collections []Collection, selection Selection) []Product {
	base := CollectionProducts(products, collections, selection.Collection)
	category, ok := selection.Category.Value()
	if !ok {
		return base
	}
	out := make([]Product, 0, len(base))
	for _, p := range base {
		if p.HasTag(category) {
			out = append(out, p)
		}
	}
	return out
}

// CollectionProducts returns the base set established by the collection selector alone.
func CollectionProducts(products []Product, collections []Collection, selector Selector[uuid.UUID]) []Product {
	id, ok := selector.Value()
	if !ok {
		return append(make([]Product, 0, len(products)), products...)
	}
	collection, found := FindCollection(collections, id)
	if !found {
		return []Product{}
	}
	members := make(map[uuid.UUID]struct{}, len(collection.ProductIDs))
	for _, pid := range collection.ProductIDs {
		members[pid] = struct{}{}
	}
	out := make([]Product, 0, len(collection.ProductIDs))
	for _, p := range products {
		if _, ok := members[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// AvailableCategories returns the allow-listed categories carried by at least one
// of products, in allow-list order.
func AvailableCategories(taxonomy Taxonomy, products []Product) []string {
	present := make(map[string]struct{})
	for _, p := range products {
		for _, tag := range p.Tags {
			present[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(taxonomy.categories))
	for _, c := range taxonomy.categories {
		if _, ok := present[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
