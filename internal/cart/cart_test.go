package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubPrices struct {
	prices map[uuid.UUID]decimal.Decimal
	err    error
	calls  int
}

func (s *stubPrices) UnitPrice(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	s.calls++
	if s.err != nil {
		return decimal.Zero, s.err
	}
	price, ok := s.prices[id]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return price, nil
}

type failingSnapshots struct {
	loadErr error
	saveErr error
	mu      sync.Mutex
	saves   int
}

func (f *failingSnapshots) LoadSnapshot(context.Context, string) ([]byte, bool, error) {
	return nil, false, f.loadErr
}

func (f *failingSnapshots) SaveSnapshot(context.Context, string, []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return f.saveErr
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func openStore(t *testing.T, snapshots SnapshotStore, prices PriceLookup) *Store {
	t.Helper()
	if prices == nil {
		prices = &stubPrices{}
	}
	store, err := Open(context.Background(), "sess-1", Options{Snapshots: snapshots, Prices: prices})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestOpenValidatesDependencies(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, "", Options{Snapshots: NewMemorySnapshotStore(), Prices: &stubPrices{}}); err == nil {
		t.Fatalf("expected error for empty session id")
	}
	if _, err := Open(ctx, "s", Options{Prices: &stubPrices{}}); err == nil {
		t.Fatalf("expected error without snapshot store")
	}
	if _, err := Open(ctx, "s", Options{Snapshots: NewMemorySnapshotStore()}); err == nil {
		t.Fatalf("expected error without price lookup")
	}
}

func TestAddItemMergesSameKey(t *testing.T) {
	store := openStore(t, NewMemorySnapshotStore(), nil)
	ctx := context.Background()
	p1 := uuid.New()

	if err := store.AddItem(ctx, LineInput{ProductID: p1, Variant: "M", Quantity: 2, UnitPrice: price("10.00")}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddItem(ctx, LineInput{ProductID: p1, Variant: "M", Quantity: 3, UnitPrice: price("12.00")}); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines := store.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", lines[0].Quantity)
	}
	if !lines[0].UnitPrice.Equal(price("10.00")) {
		t.Fatalf("expected original captured price, got %s", lines[0].UnitPrice)
	}
	if store.TotalItems() != 5 {
		t.Fatalf("expected 5 items, got %d", store.TotalItems())
	}
	if !store.TotalPrice().Equal(price("50")) {
		t.Fatalf("expected total 50, got %s", store.TotalPrice())
	}
}

func TestVariantsAreSeparateLines(t *testing.T) {
	store := openStore(t, NewMemorySnapshotStore(), nil)
	ctx := context.Background()
	p1 := uuid.New()
	p2 := uuid.New()

	_ = store.AddItem(ctx, LineInput{ProductID: p1, Variant: "S", Quantity: 1, UnitPrice: price("20")})
	_ = store.AddItem(ctx, LineInput{ProductID: p2, Variant: "M", Quantity: 2, UnitPrice: price("5.25")})
	_ = store.AddItem(ctx, LineInput{ProductID: p1, Variant: "L", Quantity: 1, UnitPrice: price("20")})
	_ = store.AddItem(ctx, LineInput{ProductID: p1, Variant: " S ", Quantity: 1, UnitPrice: price("20")})

	lines := store.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	order := []LineKey{{p1, "S"}, {p2, "M"}, {p1, "L"}}
	for i, key := range order {
		if lines[i].Key != key {
			t.Fatalf("line %d: expected %v, got %v", i, key, lines[i].Key)
		}
	}
	summary := store.Summary()
	if summary.TotalItems != 5 || !summary.TotalPrice.Equal(price("70.50")) {
		t.Fatalf("unexpected summary %d %s", summary.TotalItems, summary.TotalPrice)
	}
}

func TestAddItemValidation(t *testing.T) {
	store := openStore(t, NewMemorySnapshotStore(), nil)
	ctx := context.Background()
	cases := []struct {
		name  string
		input LineInput
	}{
		{"zero quantity", LineInput{ProductID: uuid.New(), Quantity: 0, UnitPrice: price("1")}},
		{"negative quantity", LineInput{ProductID: uuid.New(), Quantity: -2, UnitPrice: price("1")}},
		{"negative price", LineInput{ProductID: uuid.New(), Quantity: 1, UnitPrice: price("-1")}},
		{"missing product", LineInput{Quantity: 1, UnitPrice: price("1")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.AddItem(ctx, tc.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if store.TotalItems() != 0 {
		t.Fatalf("rejected adds must not change the cart")
	}
}

func TestQuantityIsCappedPerLine(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	p := uuid.New()
	prices := &stubPrices{prices: map[uuid.UUID]decimal.Decimal{p: price("10")}}
	store := openStore(t, snapshots, prices)
	ctx := context.Background()
	key := LineKey{ProductID: p, Variant: "M"}

	if err := store.AddItem(ctx, LineInput{ProductID: p, Variant: "M", Quantity: math.MaxInt, UnitPrice: price("10")}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for huge quantity, got %v", err)
	}
	if err := store.AddItem(ctx, LineInput{ProductID: p, Variant: "M", Quantity: MaxLineQuantity, UnitPrice: price("10")}); err != nil {
		t.Fatalf("add at the limit: %v", err)
	}
	if err := store.AddItem(ctx, LineInput{ProductID: p, Variant: "M", Quantity: 1, UnitPrice: price("10")}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected merge past the limit to be rejected, got %v", err)
	}
	if err := store.UpdateQuantity(ctx, key, math.MaxInt); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected update past the limit to be rejected, got %v", err)
	}

	if store.TotalItems() != MaxLineQuantity {
		t.Fatalf("rejected changes must leave the line alone, got %d", store.TotalItems())
	}
	if !store.TotalPrice().Equal(price("990")) {
		t.Fatalf("unexpected total %s", store.TotalPrice())
	}

	reopened := openStore(t, snapshots, prices)
	if lines := reopened.Lines(); len(lines) != 1 || lines[0].Quantity != MaxLineQuantity {
		t.Fatalf("capped line should survive rehydration, got %+v", lines)
	}
}

func TestUpdateAndRemove(t *testing.T) {
	store := openStore(t, NewMemorySnapshotStore(), nil)
	ctx := context.Background()
	a := LineKey{ProductID: uuid.New(), Variant: "M"}
	b := LineKey{ProductID: uuid.New(), Variant: "L"}
	_ = store.AddItem(ctx, LineInput{ProductID: a.ProductID, Variant: a.Variant, Quantity: 2, UnitPrice: price("10")})
	_ = store.AddItem(ctx, LineInput{ProductID: b.ProductID, Variant: b.Variant, Quantity: 1, UnitPrice: price("7")})

	if err := store.UpdateQuantity(ctx, a, 4); err != nil {
		t.Fatalf("update: %v", err)
	}
	if store.TotalItems() != 5 || !store.TotalPrice().Equal(price("47")) {
		t.Fatalf("unexpected totals after update: %d %s", store.TotalItems(), store.TotalPrice())
	}

	if err := store.UpdateQuantity(ctx, a, 0); err != nil {
		t.Fatalf("update to zero: %v", err)
	}
	if err := store.RemoveItem(ctx, b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(store.Lines()) != 0 || store.TotalItems() != 0 || !store.TotalPrice().IsZero() {
		t.Fatalf("expected empty cart")
	}

	if err := store.UpdateQuantity(ctx, LineKey{ProductID: uuid.New()}, 3); err != nil {
		t.Fatalf("unknown key should be a no-op, got %v", err)
	}
	if err := store.RemoveItem(ctx, LineKey{ProductID: uuid.New()}); err != nil {
		t.Fatalf("unknown key should be a no-op, got %v", err)
	}
}

func TestObserversSeeSettledState(t *testing.T) {
	store := openStore(t, NewMemorySnapshotStore(), nil)
	ctx := context.Background()
	key := LineKey{ProductID: uuid.New(), Variant: "M"}

	var seen []int
	unsubscribe := store.Subscribe(func(summary Summary) {
		if got := store.TotalItems(); got != summary.TotalItems {
			t.Errorf("observer saw stale read: store=%d summary=%d", got, summary.TotalItems)
		}
		seen = append(seen, summary.TotalItems)
	})

	_ = store.AddItem(ctx, LineInput{ProductID: key.ProductID, Variant: key.Variant, Quantity: 2, UnitPrice: price("1")})
	_ = store.UpdateQuantity(ctx, key, 6)
	_ = store.UpdateQuantity(ctx, LineKey{ProductID: uuid.New()}, 1)
	_ = store.RemoveItem(ctx, key)

	if want := []int{2, 6, 0}; len(seen) != len(want) || seen[0] != 2 || seen[1] != 6 || seen[2] != 0 {
		t.Fatalf("expected notifications %v, got %v", want, seen)
	}

	unsubscribe()
	_ = store.AddItem(ctx, LineInput{ProductID: key.ProductID, Variant: key.Variant, Quantity: 1, UnitPrice: price("1")})
	if len(seen) != 3 {
		t.Fatalf("unsubscribed observer was notified")
	}
}

func TestClear(t *testing.T) {
	snapshots := &failingSnapshots{}
	store := openStore(t, snapshots, nil)
	ctx := context.Background()
	_ = store.AddItem(ctx, LineInput{ProductID: uuid.New(), Quantity: 3, UnitPrice: price("2")})

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.TotalItems() != 0 {
		t.Fatalf("expected empty cart")
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear empty: %v", err)
	}
	if snapshots.saves != 2 {
		t.Fatalf("expected 2 snapshot writes, got %d", snapshots.saves)
	}
}

func TestSnapshotRoundTripThroughStore(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	p1, p2, gone := uuid.New(), uuid.New(), uuid.New()
	prices := &stubPrices{prices: map[uuid.UUID]decimal.Decimal{
		p1:   price("10"),
		p2:   price("4"),
		gone: price("9"),
	}}
	ctx := context.Background()

	first := openStore(t, snapshots, prices)
	_ = first.AddItem(ctx, LineInput{ProductID: p1, Variant: "M", Quantity: 2, UnitPrice: price("10")})
	_ = first.AddItem(ctx, LineInput{ProductID: gone, Variant: "S", Quantity: 1, UnitPrice: price("9")})
	_ = first.AddItem(ctx, LineInput{ProductID: p2, Variant: "L", Quantity: 3, UnitPrice: price("4")})

	prices.prices[p1] = price("11")
	delete(prices.prices, gone)

	second := openStore(t, snapshots, prices)
	lines := second.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected unavailable product to be dropped, got %d lines", len(lines))
	}
	if lines[0].Key != (LineKey{p1, "M"}) || lines[1].Key != (LineKey{p2, "L"}) {
		t.Fatalf("unexpected line order %v", lines)
	}
	if !lines[0].UnitPrice.Equal(price("11")) {
		t.Fatalf("expected price to be re-captured, got %s", lines[0].UnitPrice)
	}
	if second.Degraded() {
		t.Fatalf("rehydration should not be degraded")
	}

	_ = second.AddItem(ctx, LineInput{ProductID: p2, Variant: "L", Quantity: 1, UnitPrice: price("4")})
	raw, _, _ := snapshots.LoadSnapshot(ctx, "sess-1")
	snapshot, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.Version != 4 {
		t.Fatalf("expected version to continue from rehydrated snapshot, got %d", snapshot.Version)
	}
}

func TestCorruptSnapshotYieldsEmptyCart(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	ctx := context.Background()
	_ = snapshots.SaveSnapshot(ctx, "sess-1", []byte(`{"format":1,"version":3,"lines":[{"product_id":"`))

	store := openStore(t, snapshots, nil)
	if store.TotalItems() != 0 {
		t.Fatalf("expected empty cart from corrupt snapshot")
	}
	if store.Degraded() {
		t.Fatalf("corrupt snapshot is not a persistence failure")
	}
}

func TestSnapshotReadFailureDegrades(t *testing.T) {
	store := openStore(t, &failingSnapshots{loadErr: errors.New("redis down")}, nil)
	if !store.Degraded() {
		t.Fatalf("expected degraded store")
	}
	if store.TotalItems() != 0 {
		t.Fatalf("expected empty cart")
	}
}

func TestPriceLookupFailureKeepsCartEmpty(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	ctx := context.Background()
	payload, _ := EncodeSnapshot(2, []SnapshotLine{{ProductID: uuid.New(), Variant: "M", Quantity: 1}})
	_ = snapshots.SaveSnapshot(ctx, "sess-1", payload)

	store := openStore(t, snapshots, &stubPrices{err: errors.New("db down")})
	if !store.Degraded() || store.TotalItems() != 0 {
		t.Fatalf("expected degraded empty cart")
	}
}

func TestWriteFailureKeepsCartInMemory(t *testing.T) {
	snapshots := &failingSnapshots{saveErr: errors.New("redis down")}
	store := openStore(t, snapshots, nil)
	ctx := context.Background()

	if err := store.AddItem(ctx, LineInput{ProductID: uuid.New(), Quantity: 2, UnitPrice: price("3")}); err != nil {
		t.Fatalf("write failure must not fail the mutation: %v", err)
	}
	if store.TotalItems() != 2 {
		t.Fatalf("expected in-memory state to survive")
	}
	if !store.Degraded() {
		t.Fatalf("expected degraded store")
	}

	snapshots.mu.Lock()
	snapshots.saveErr = nil
	snapshots.mu.Unlock()
	_ = store.AddItem(ctx, LineInput{ProductID: uuid.New(), Quantity: 1, UnitPrice: price("3")})
	if store.Degraded() {
		t.Fatalf("successful write should clear degraded state")
	}
}

func TestCancelledContextStillPersists(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	store := openStore(t, snapshots, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = store.AddItem(ctx, LineInput{ProductID: uuid.New(), Quantity: 1, UnitPrice: price("3")})
	if _, found, _ := snapshots.LoadSnapshot(context.Background(), "sess-1"); !found {
		t.Fatalf("expected snapshot despite cancelled caller")
	}
}

func TestConcurrentMutationsPersistLatest(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	store := openStore(t, snapshots, nil)
	ctx := context.Background()
	product := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.AddItem(ctx, LineInput{ProductID: product, Variant: "M", Quantity: 1, UnitPrice: price("1")})
		}()
	}
	wg.Wait()

	if store.TotalItems() != 50 {
		t.Fatalf("expected 50 items, got %d", store.TotalItems())
	}
	raw, _, _ := snapshots.LoadSnapshot(ctx, "sess-1")
	snapshot, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.Version != 50 || snapshot.Lines[0].Quantity != 50 {
		t.Fatalf("expected newest snapshot to win, got version=%d qty=%d", snapshot.Version, snapshot.Lines[0].Quantity)
	}
}

func TestFlushRetriesDegradedWrite(t *testing.T) {
	snapshots := &failingSnapshots{saveErr: errors.New("redis down")}
	store := openStore(t, snapshots, nil)
	ctx := context.Background()

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush of healthy store should be a no-op: %v", err)
	}
	_ = store.AddItem(ctx, LineInput{ProductID: uuid.New(), Quantity: 1, UnitPrice: price("3")})

	if err := store.Flush(ctx); !pkgerrors.IsCode(err, pkgerrors.CodePersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	snapshots.mu.Lock()
	snapshots.saveErr = nil
	snapshots.mu.Unlock()
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if store.Degraded() {
		t.Fatalf("flush should clear degraded state")
	}
	if snapshots.saves != 3 {
		t.Fatalf("expected 3 write attempts, got %d", snapshots.saves)
	}
}

func TestFlushAfterReadFailureDoesNotOverwrite(t *testing.T) {
	snapshots := &failingSnapshots{loadErr: errors.New("redis down")}
	store := openStore(t, snapshots, nil)

	if err := store.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if snapshots.saves != 0 {
		t.Fatalf("unread snapshot must not be overwritten by flush")
	}
}
