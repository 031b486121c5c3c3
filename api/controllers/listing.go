package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/maison-storefront/api/responses"
	"github.com/angelmondragon/maison-storefront/api/validators"
	"github.com/angelmondragon/maison-storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
)

type viewCollectionRequest struct {
	CollectionID string `json:"collection_id" validate:"required,uuid"`
}

type selectCategoryRequest struct {
	Category string `json:"category" validate:"required,max=64"`
}

// ListingFetch renders the listing for the current selection.
func ListingFetch(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return listingAction(sessions, logg, func(context.Context, *http.Request, *storefront.Listing) error {
		return nil
	})
}

// ListingViewCollection is the explicit "view collection" action.
func ListingViewCollection(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req viewCollectionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuid.Parse(req.CollectionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid collection id"))
			return
		}
		listingAction(sessions, logg, func(_ context.Context, _ *http.Request, l *storefront.Listing) error {
			return l.ViewCollection(id)
		})(w, r)
	}
}

// ListingShowAll drops the collection filter.
func ListingShowAll(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return listingAction(sessions, logg, func(_ context.Context, _ *http.Request, l *storefront.Listing) error {
		l.ShowAll()
		return nil
	})
}

func ListingSelectCategory(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectCategoryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingAction(sessions, logg, func(_ context.Context, _ *http.Request, l *storefront.Listing) error {
			return l.SelectCategory(req.Category)
		})(w, r)
	}
}

func ListingClearCategory(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return listingAction(sessions, logg, func(_ context.Context, _ *http.Request, l *storefront.Listing) error {
		l.ClearCategory()
		return nil
	})
}

func ListingClearFilters(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return listingAction(sessions, logg, func(_ context.Context, _ *http.Request, l *storefront.Listing) error {
		l.ClearFilters()
		return nil
	})
}

func ListingCarouselNext(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return listingAction(sessions, logg, func(ctx context.Context, _ *http.Request, l *storefront.Listing) error {
		l.NextCollection(ctx)
		return nil
	})
}

func ListingCarouselPrev(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return listingAction(sessions, logg, func(ctx context.Context, _ *http.Request, l *storefront.Listing) error {
		l.PrevCollection(ctx)
		return nil
	})
}

// ListingReset clears filters and the carousel when the shopper leaves the listing.
func ListingReset(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return listingAction(sessions, logg, func(_ context.Context, _ *http.Request, l *storefront.Listing) error {
		l.Reset()
		return nil
	})
}

func listingAction(sessions Sessions, logg *logger.Logger, act func(context.Context, *http.Request, *storefront.Listing) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var view storefront.ListingView
		err = sess.WithListing(func(l *storefront.Listing) error {
			if err := act(ctx, r, l); err != nil {
				return err
			}
			view = l.View(ctx)
			return nil
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, listingResponse(view))
	}
}
