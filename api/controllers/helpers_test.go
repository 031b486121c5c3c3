package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/maison-storefront/api/middleware"
	"github.com/angelmondragon/maison-storefront/internal/cart"
	"github.com/angelmondragon/maison-storefront/internal/catalog"
	"github.com/angelmondragon/maison-storefront/internal/storefront"
	"github.com/angelmondragon/maison-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
)

type stubProducts struct {
	products map[uuid.UUID]catalog.Product
}

func (s *stubProducts) FindProduct(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func (s *stubProducts) UnitPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	p, err := s.FindProduct(ctx, id)
	return p.Price, err
}

type stubFeed struct {
	mu   sync.Mutex
	feed catalog.Feed
}

func (s *stubFeed) Current(context.Context) catalog.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed
}

type stubEndpoint struct {
	mu     sync.Mutex
	emails []string
	err    error
}

func (s *stubEndpoint) Subscribe(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, email)
	return s.err
}

func (s *stubEndpoint) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emails)
}

type unreachableSnapshots struct{}

func (unreachableSnapshots) LoadSnapshot(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("dial tcp 127.0.0.1:6379: connection refused")
}

func (unreachableSnapshots) SaveSnapshot(context.Context, string, []byte) error {
	return errors.New("dial tcp 127.0.0.1:6379: connection refused")
}

type failingSessions struct{}

func (failingSessions) Get(context.Context, string) (*storefront.Session, error) {
	return nil, errors.New("redis unreachable")
}

type fixture struct {
	registry *storefront.Registry
	feed     *stubFeed
	endpoint *stubEndpoint
	dress    catalog.Product
	tee      catalog.Product
	tote     catalog.Product
	evening  catalog.Collection
	weekend  catalog.Collection
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSnapshots(t, cart.NewMemorySnapshotStore())
}

func newFixtureWithSnapshots(t *testing.T, snapshots cart.SnapshotStore) *fixture {
	t.Helper()
	f := &fixture{
		dress: catalog.Product{ID: uuid.New(), Title: "Silk Slip Dress", Price: decimal.RequireFromString("245.00"), Tags: []string{"Dresses"}, Sizes: []string{"XS", "S", "M"}},
		tee:   catalog.Product{ID: uuid.New(), Title: "Cotton Tee", Price: decimal.RequireFromString("45.00"), Tags: []string{"Tops"}, Sizes: []string{"S", "M", "L"}},
		tote:  catalog.Product{ID: uuid.New(), Title: "Leather Tote", Price: decimal.RequireFromString("320.00"), Tags: []string{"Accessories"}},
	}
	f.evening = catalog.Collection{ID: uuid.New(), Name: "Evening", ProductIDs: []uuid.UUID{f.dress.ID, f.tote.ID}}
	f.weekend = catalog.Collection{ID: uuid.New(), Name: "Weekend", ProductIDs: []uuid.UUID{f.tee.ID}}
	f.feed = &stubFeed{feed: catalog.Feed{
		Status:      enums.FeedStatusReady,
		Products:    []catalog.Product{f.dress, f.tee, f.tote},
		Collections: []catalog.Collection{f.evening, f.weekend},
	}}
	f.endpoint = &stubEndpoint{}

	registry, err := storefront.NewRegistry(storefront.Dependencies{
		Snapshots: snapshots,
		Products: &stubProducts{products: map[uuid.UUID]catalog.Product{
			f.dress.ID: f.dress, f.tee.ID: f.tee, f.tote.ID: f.tote,
		}},
		Feed:     f.feed,
		Endpoint: f.endpoint,
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	f.registry = registry
	return f
}

func serve(t *testing.T, handler http.Handler, method, target, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if sessionID != "" {
		req = req.WithContext(middleware.WithSessionID(req.Context(), sessionID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return envelope.Error.Code
}
