// Package storefront composes the per-session interaction state: cart, cart
// drawer, listing filters with carousel, and the newsletter form.
package storefront

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/maison-storefront/internal/cart"
	"github.com/angelmondragon/maison-storefront/internal/catalog"
	"github.com/angelmondragon/maison-storefront/internal/drawer"
	"github.com/angelmondragon/maison-storefront/internal/newsletter"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCatalog resolves products for cart adds and prices for rehydration.
type ProductCatalog interface {
	cart.PriceLookup
	FindProduct(ctx context.Context, id uuid.UUID) (catalog.Product, error)
}

// Session owns one instance of every interaction component. Its operations are
// serialized so each one runs to completion before the next starts.
type Session struct {
	ID         string
	Cart       *cart.Store
	Drawer     *drawer.Controller
	Listing    *Listing
	Newsletter *newsletter.Flow

	products ProductCatalog
	mu       sync.Mutex
	lastSeen atomic.Int64
}

// AddToCartInput is the payload of an "add to bag" action.
type AddToCartInput struct {
	ProductID  uuid.UUID
	Variant    string
	Quantity   int
	OpenDrawer bool
}

// CartView is the cart as the header badge and drawer render it.
type CartView struct {
	Lines      []cart.Line
	TotalItems int
	TotalPrice decimal.Decimal
	Badge      string
	DrawerOpen bool
	Degraded   bool
}

// AddToCart prices the product from the catalog and adds it; the drawer opens
// when requested. Products with sizes require one of them as the variant.
func (s *Session) AddToCart(ctx context.Context, input AddToCartInput) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.products.FindProduct(ctx, input.ProductID)
	if err != nil {
		return CartView{}, err
	}
	variant := strings.TrimSpace(input.Variant)
	if len(product.Sizes) > 0 && !contains(product.Sizes, variant) {
		return CartView{}, pkgerrors.New(pkgerrors.CodeValidation, "size is not available for this product").
			WithDetails(map[string]any{"sizes": product.Sizes})
	}
	if err := s.Cart.AddItem(ctx, cart.LineInput{
		ProductID: product.ID,
		Variant:   variant,
		Quantity:  input.Quantity,
		UnitPrice: product.Price,
	}); err != nil {
		return CartView{}, err
	}
	if input.OpenDrawer {
		s.Drawer.Open()
	}
	return s.cartViewLocked(), nil
}

// UpdateCartItem overwrites a line's quantity; zero or less removes it.
func (s *Session) UpdateCartItem(ctx context.Context, key cart.LineKey, quantity int) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Cart.UpdateQuantity(ctx, key, quantity); err != nil {
		return CartView{}, err
	}
	return s.cartViewLocked(), nil
}

// RemoveCartItem deletes a line.
func (s *Session) RemoveCartItem(ctx context.Context, key cart.LineKey) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Cart.RemoveItem(ctx, key); err != nil {
		return CartView{}, err
	}
	return s.cartViewLocked(), nil
}

// ClearCart empties the cart.
func (s *Session) ClearCart(ctx context.Context) (CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Cart.Clear(ctx); err != nil {
		return CartView{}, err
	}
	return s.cartViewLocked(), nil
}

// SetDrawer opens or closes the cart drawer.
func (s *Session) SetDrawer(open bool) CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.Drawer.Open()
	} else {
		s.Drawer.Close()
	}
	return s.cartViewLocked()
}

// CartView reads the cart.
func (s *Session) CartView() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartViewLocked()
}

// WithListing runs fn against the listing under the session lock.
func (s *Session) WithListing(fn func(*Listing) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.Listing)
}

// SubscribeNewsletter submits email and waits, bounded by ctx, for the call to
// settle. Only the submit itself holds the session lock.
func (s *Session) SubscribeNewsletter(ctx context.Context, email string) newsletter.State {
	s.mu.Lock()
	s.Newsletter.Submit(ctx, email)
	s.mu.Unlock()
	return s.Newsletter.Await(ctx)
}

// LastSeen reports when the session was last handed out by the registry.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) cartViewLocked() CartView {
	summary := s.Cart.Summary()
	return CartView{
		Lines:      summary.Lines,
		TotalItems: summary.TotalItems,
		TotalPrice: summary.TotalPrice,
		Badge:      cart.BadgeLabel(summary.TotalItems),
		DrawerOpen: s.Drawer.IsOpen(),
		Degraded:   s.Cart.Degraded(),
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
