package controllers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/maison-storefront/internal/catalog"
	"github.com/angelmondragon/maison-storefront/internal/newsletter"
	"github.com/angelmondragon/maison-storefront/internal/storefront"
)

type SelectionResponse struct {
	CollectionID *uuid.UUID `json:"collection_id"`
	Category     *string    `json:"category"`
}

type CollectionResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Image        string    `json:"image,omitempty"`
	ProductCount int       `json:"product_count"`
}

type CarouselResponse struct {
	Index   int                 `json:"index"`
	Total   int                 `json:"total"`
	Current *CollectionResponse `json:"current"`
}

type ListingResponse struct {
	Status      string               `json:"status"`
	Heading     string               `json:"heading"`
	CountLabel  string               `json:"count_label,omitempty"`
	Empty       bool                 `json:"empty"`
	Products    []catalog.Product    `json:"products"`
	Categories  []string             `json:"categories"`
	Selection   SelectionResponse    `json:"selection"`
	HasFilters  bool                 `json:"has_filters"`
	Collections []CollectionResponse `json:"collections"`
	Carousel    CarouselResponse     `json:"carousel"`
}

type CartLineResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Variant   string          `json:"variant"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Lines      []CartLineResponse `json:"lines"`
	TotalItems int                `json:"total_items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	Badge      string             `json:"badge"`
	DrawerOpen bool               `json:"drawer_open"`
	Degraded   bool               `json:"degraded"`
}

type NewsletterResponse struct {
	Status  string `json:"status"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
}

func listingResponse(view storefront.ListingView) ListingResponse {
	resp := ListingResponse{
		Status:     view.Status.String(),
		Heading:    view.Heading,
		CountLabel: view.CountLabel,
		Empty:      view.Empty,
		Products:   view.Products,
		Categories: view.Categories,
		Selection: SelectionResponse{
			CollectionID: view.Selection.Collection.Ptr(),
			Category:     view.Selection.Category.Ptr(),
		},
		HasFilters:  view.HasFilters,
		Collections: make([]CollectionResponse, 0, len(view.Collections)),
		Carousel:    CarouselResponse{Index: view.CarouselIndex, Total: len(view.Collections)},
	}
	for _, c := range view.Collections {
		resp.Collections = append(resp.Collections, CollectionResponse{
			ID:           c.ID,
			Name:         c.Name,
			Description:  c.Description,
			Image:        c.Image,
			ProductCount: len(c.ProductIDs),
		})
	}
	if len(resp.Collections) > 0 {
		current := resp.Collections[view.CarouselIndex]
		resp.Carousel.Current = &current
	}
	return resp
}

func cartResponse(view storefront.CartView) CartResponse {
	resp := CartResponse{
		Lines:      make([]CartLineResponse, 0, len(view.Lines)),
		TotalItems: view.TotalItems,
		TotalPrice: view.TotalPrice,
		Badge:      view.Badge,
		DrawerOpen: view.DrawerOpen,
		Degraded:   view.Degraded,
	}
	for _, line := range view.Lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			ProductID: line.Key.ProductID,
			Variant:   line.Key.Variant,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.Total(),
		})
	}
	return resp
}

func newsletterResponse(state newsletter.State) NewsletterResponse {
	resp := NewsletterResponse{Status: state.Status().String()}
	switch s := state.(type) {
	case newsletter.Submitting:
		resp.Email = s.Email
	case newsletter.Failed:
		resp.Email = s.Email
		resp.Message = s.Message
	}
	return resp
}
