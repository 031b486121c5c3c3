package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/maison-storefront/api/responses"
	"github.com/angelmondragon/maison-storefront/api/validators"
	"github.com/angelmondragon/maison-storefront/internal/cart"
	"github.com/angelmondragon/maison-storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
)

const (
	defaultAddQuantity = 1
	maxVariantLength   = 64
)

// Quantity bounds mirror cart.MaxLineQuantity.
type addCartItemRequest struct {
	ProductID  string `json:"product_id" validate:"required,uuid"`
	Variant    string `json:"variant" validate:"max=64"`
	Quantity   *int   `json:"quantity" validate:"omitempty,min=1,max=99"`
	OpenDrawer *bool  `json:"open_drawer"`
}

type updateCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Variant   string `json:"variant" validate:"max=64"`
	Quantity  *int   `json:"quantity" validate:"required,max=99"`
}

func CartFetch(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse(sess.CartView()))
	}
}

// CartAddItem adds a product at its catalog price. Quantity defaults to one
// and the drawer opens unless open_drawer is false.
func CartAddItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		input := storefront.AddToCartInput{
			ProductID:  productID,
			Variant:    req.Variant,
			Quantity:   defaultAddQuantity,
			OpenDrawer: true,
		}
		if req.Quantity != nil {
			input.Quantity = *req.Quantity
		}
		if req.OpenDrawer != nil {
			input.OpenDrawer = *req.OpenDrawer
		}

		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		view, err := sess.AddToCart(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse(view))
	}
}

// CartUpdateItem overwrites a line's quantity; zero removes the line.
func CartUpdateItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		key := cart.LineKey{ProductID: productID, Variant: validators.SanitizeString(req.Variant, maxVariantLength)}
		view, err := sess.UpdateCartItem(ctx, key, *req.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse(view))
	}
}

func CartRemoveItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		key := cart.LineKey{ProductID: productID, Variant: validators.ParseQueryString(r, "variant", maxVariantLength)}

		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		view, err := sess.RemoveCartItem(ctx, key)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse(view))
	}
}

func CartClear(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		view, err := sess.ClearCart(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse(view))
	}
}

// CartDrawer opens or closes the cart drawer.
func CartDrawer(sessions Sessions, open bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFor(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartResponse(sess.SetDrawer(open)))
	}
}
