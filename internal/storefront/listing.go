package storefront

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/angelmondragon/maison-storefront/internal/carousel"
	"github.com/angelmondragon/maison-storefront/internal/catalog"
	"github.com/angelmondragon/maison-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/google/uuid"
)

const allProductsHeading = "Shop All"

// FeedSource provides the current catalog feed without blocking.
type FeedSource interface {
	Current(ctx context.Context) catalog.Feed
}

// Listing is the per-session product listing: filter selection plus carousel.
type Listing struct {
	feed     FeedSource
	taxonomy catalog.Taxonomy
	carousel *carousel.Carousel

	mu        sync.Mutex
	selection catalog.Selection
}

// ListingView is everything the listing page renders.
type ListingView struct {
	Status        enums.FeedStatus
	Heading       string
	Products      []catalog.Product
	CountLabel    string
	Empty         bool
	Categories    []string
	Selection     catalog.Selection
	HasFilters    bool
	Collections   []catalog.Collection
	CarouselIndex int
}

// NewListing returns a listing with no filters applied.
func NewListing(feed FeedSource, taxonomy catalog.Taxonomy) *Listing {
	return &Listing{feed: feed, taxonomy: taxonomy, carousel: carousel.New()}
}

// ViewCollection restricts the grid to a collection. The carousel index is left alone.
func (l *Listing) ViewCollection(id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "collection id is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.Collection = catalog.Only(id)
	return nil
}

// ShowAll clears the collection filter.
func (l *Listing) ShowAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.Collection = catalog.Any[uuid.UUID]()
}

// SelectCategory restricts the grid to an allow-listed category.
func (l *Listing) SelectCategory(category string) error {
	category = strings.TrimSpace(category)
	if !l.taxonomy.Allows(category) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown category").
			WithDetails(map[string]any{"allowed": l.taxonomy.Categories()})
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.Category = catalog.Only(category)
	return nil
}

// ClearCategory clears the category filter.
func (l *Listing) ClearCategory() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.Category = catalog.Any[string]()
}

// ClearFilters clears both selectors.
func (l *Listing) ClearFilters() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection = catalog.Selection{}
}

// NextCollection advances the carousel over the current collections.
func (l *Listing) NextCollection(ctx context.Context) int {
	return l.carousel.Next(len(l.feed.Current(ctx).Collections))
}

// PrevCollection moves the carousel back over the current collections.
func (l *Listing) PrevCollection(ctx context.Context) int {
	return l.carousel.Prev(len(l.feed.Current(ctx).Collections))
}

// Reset drops filters and rewinds the carousel, as when leaving the listing page.
func (l *Listing) Reset() {
	l.ClearFilters()
	l.carousel.Reset()
}

// Selection returns the current filter selection.
func (l *Listing) Selection() catalog.Selection {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection
}

// View derives the listing from the current feed and selection. Nothing is cached.
func (l *Listing) View(ctx context.Context) ListingView {
	feed := l.feed.Current(ctx)
	selection := l.Selection()

	view := ListingView{
		Status:      feed.Status,
		Heading:     heading(feed.Collections, selection),
		Products:    []catalog.Product{},
		Categories:  []string{},
		Selection:   selection,
		HasFilters:  selection.IsFiltered(),
		Collections: feed.Collections,
	}
	if view.Collections == nil {
		view.Collections = []catalog.Collection{}
	}
	view.CarouselIndex = l.carousel.Index(len(view.Collections))
	if feed.Status != enums.FeedStatusReady {
		return view
	}

	base := catalog.CollectionProducts(feed.Products, feed.Collections, selection.Collection)
	view.Categories = catalog.AvailableCategories(l.taxonomy, base)
	view.Products = catalog.FilteredProducts(feed.Products, feed.Collections, selection)
	view.Empty = len(view.Products) == 0
	view.CountLabel = countLabel(len(view.Products))
	return view
}

func heading(collections []catalog.Collection, selection catalog.Selection) string {
	if id, ok := selection.Collection.Value(); ok {
		// A collection missing from the feed renders no heading over its empty grid.
		c, _ := catalog.FindCollection(collections, id)
		return c.Name
	}
	if category, ok := selection.Category.Value(); ok {
		return category
	}
	return allProductsHeading
}

func countLabel(n int) string {
	if n == 1 {
		return "1 piece"
	}
	return strconv.Itoa(n) + " pieces"
}
