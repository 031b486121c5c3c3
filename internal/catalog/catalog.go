// Package catalog derives the product grid shown by the storefront listing:
// collection and category filtering, the category buttons and the product feed.
package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog listing as the storefront sees it; never mutated here.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Tags        []string        `json:"tags"`
	Sizes       []string        `json:"sizes"`
}

// HasTag reports whether the product carries tag exactly.
func (p Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Collection is a curated group of products.
type Collection struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Image       string      `json:"image,omitempty"`
	ProductIDs  []uuid.UUID `json:"product_ids"`
}

// Contains reports whether productID is a member of the collection.
func (c Collection) Contains(productID uuid.UUID) bool {
	for _, id := range c.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// FindCollection returns the collection with the given id.
func FindCollection(collections []Collection, id uuid.UUID) (Collection, bool) {
	for _, c := range collections {
		if c.ID == id {
			return c, true
		}
	}
	return Collection{}, false
}

// Selector is an optional filter value: either Any (no restriction) or Only(v).
type Selector[T comparable] struct {
	value T
	set   bool
}

// Any returns a selector that matches everything.
func Any[T comparable]() Selector[T] {
	return Selector[T]{}
}

// Only returns a selector restricted to v.
func Only[T comparable](v T) Selector[T] {
	return Selector[T]{value: v, set: true}
}

// Value returns the selected value and whether one is set.
func (s Selector[T]) Value() (T, bool) {
	return s.value, s.set
}

// IsAny reports whether the selector is unrestricted.
func (s Selector[T]) IsAny() bool {
	return !s.set
}

// Ptr returns nil for Any, or a pointer to a copy of the value.
func (s Selector[T]) Ptr() *T {
	if !s.set {
		return nil
	}
	v := s.value
	return &v
}

// Selection holds the two independent listing filters.
type Selection struct {
	Collection Selector[uuid.UUID]
	Category   Selector[string]
}

// IsFiltered reports whether either selector is set.
func (s Selection) IsFiltered() bool {
	return !s.Collection.IsAny() || !s.Category.IsAny()
}
