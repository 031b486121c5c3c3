// Package cart holds a session's shopping cart: the line items, their derived
// totals, change notification and snapshot persistence.
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/maison-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
	"github.com/angelmondragon/maison-storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultWriteTimeout = 2 * time.Second

// MaxLineQuantity caps a single line so totals stay far from int overflow.
const MaxLineQuantity = 99

// LineKey identifies a cart line: one product in one variant (size).
type LineKey struct {
	ProductID uuid.UUID
	Variant   string
}

// Line is a single cart entry. UnitPrice is captured when the line is created.
type Line struct {
	Key       LineKey
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns UnitPrice * Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineInput is the payload for AddItem.
type LineInput struct {
	ProductID uuid.UUID
	Variant   string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Summary is the derived view observers and readers receive.
type Summary struct {
	Lines      []Line
	TotalItems int
	TotalPrice decimal.Decimal
}

// Observer is called synchronously after every applied mutation. Observers may
// read the store but must not mutate it.
type Observer func(Summary)

// PriceLookup resolves the current unit price of a product. A pkg/errors
// NOT_FOUND result means the product can no longer be sold.
type PriceLookup interface {
	UnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}

// SnapshotStore persists one opaque snapshot per session.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, sessionID string) ([]byte, bool, error)
	SaveSnapshot(ctx context.Context, sessionID string, payload []byte) error
}

// Options carries the Store's collaborators.
type Options struct {
	Snapshots    SnapshotStore
	Prices       PriceLookup
	Logger       *logger.Logger
	Metrics      *metrics.StorefrontMetrics
	WriteTimeout time.Duration
}

type subscription struct {
	id int
	fn Observer
}

// Store is the cart of one session. It is safe for concurrent use.
type Store struct {
	sessionID    string
	snapshots    SnapshotStore
	logg         *logger.Logger
	metrics      *metrics.StorefrontMetrics
	writeTimeout time.Duration

	mu        sync.Mutex
	lines     []Line
	version   uint64
	observers []subscription
	nextSubID int

	// notifyMu is taken before mu is released so observers see mutations in order.
	notifyMu sync.Mutex

	persistMu        sync.Mutex
	persistedVersion uint64
	degraded         atomic.Bool
	unsaved          atomic.Bool
}

// Open builds the cart for sessionID and rehydrates it from the last snapshot.
// A missing, corrupt or unreadable snapshot yields an empty cart.
func Open(ctx context.Context, sessionID string, opts Options) (*Store, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id required")
	}
	if opts.Snapshots == nil {
		return nil, errors.New("snapshot store required")
	}
	if opts.Prices == nil {
		return nil, errors.New("price lookup required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	s := &Store{
		sessionID:    sessionID,
		snapshots:    opts.Snapshots,
		logg:         opts.Logger,
		metrics:      opts.Metrics,
		writeTimeout: opts.WriteTimeout,
	}
	s.rehydrate(ctx, opts.Prices)
	return s, nil
}

// AddItem merges input into the line with the same key, keeping that line's
// captured price, or appends a new line.
func (s *Store) AddItem(ctx context.Context, input LineInput) error {
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if input.Quantity > MaxLineQuantity {
		return quantityLimitError()
	}
	if input.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	key := LineKey{ProductID: input.ProductID, Variant: strings.TrimSpace(input.Variant)}

	s.mu.Lock()
	if idx := s.indexLocked(key); idx >= 0 {
		if s.lines[idx].Quantity > MaxLineQuantity-input.Quantity {
			s.mu.Unlock()
			return quantityLimitError()
		}
		s.lines[idx].Quantity += input.Quantity
	} else {
		s.lines = append(s.lines, Line{Key: key, Quantity: input.Quantity, UnitPrice: input.UnitPrice})
	}
	s.commitLocked(ctx, enums.CartOperationAdd)
	return nil
}

// UpdateQuantity overwrites a line's quantity; quantity <= 0 removes the line.
// Unknown keys are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, key LineKey, quantity int) error {
	if quantity > MaxLineQuantity {
		return quantityLimitError()
	}
	key.Variant = strings.TrimSpace(key.Variant)
	s.mu.Lock()
	idx := s.indexLocked(key)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	if quantity <= 0 {
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
		s.commitLocked(ctx, enums.CartOperationRemove)
		return nil
	}
	if s.lines[idx].Quantity == quantity {
		s.mu.Unlock()
		return nil
	}
	s.lines[idx].Quantity = quantity
	s.commitLocked(ctx, enums.CartOperationUpdate)
	return nil
}

// RemoveItem deletes the line for key if present.
func (s *Store) RemoveItem(ctx context.Context, key LineKey) error {
	return s.UpdateQuantity(ctx, key, 0)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.lines = nil
	s.commitLocked(ctx, enums.CartOperationClear)
	return nil
}

// TotalItems sums the quantity of every line.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.lines)
}

// TotalPrice sums UnitPrice * Quantity over every line.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.lines)
}

// Lines returns a copy of the lines in first-added order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// Summary returns lines and totals computed from one consistent state.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(s.lines)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.observers = append(s.observers, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Degraded reports whether the last snapshot read or write failed; the cart
// keeps working in memory while degraded.
func (s *Store) Degraded() bool {
	return s.degraded.Load()
}

// Flush retries a failed snapshot write. It is a no-op when the last write
// succeeded or nothing was written yet.
func (s *Store) Flush(ctx context.Context) error {
	if !s.unsaved.Load() {
		return nil
	}
	s.mu.Lock()
	version := s.version
	records := snapshotLines(s.lines)
	s.mu.Unlock()

	payload, err := EncodeSnapshot(version, records)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if version < s.persistedVersion {
		return nil
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	if err := s.snapshots.SaveSnapshot(writeCtx, s.sessionID, payload); err != nil {
		s.metrics.IncPersistenceFailure("flush")
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "flush cart snapshot")
	}
	s.persistedVersion = version
	s.unsaved.Store(false)
	s.degraded.Store(false)
	return nil
}

func quantityLimitError() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit").
		WithDetails(map[string]any{"max_quantity": MaxLineQuantity})
}

func (s *Store) indexLocked(key LineKey) int {
	for i, line := range s.lines {
		if line.Key == key {
			return i
		}
	}
	return -1
}

// commitLocked must be called with mu held; it releases mu, notifies observers
// and writes the snapshot.
func (s *Store) commitLocked(ctx context.Context, op enums.CartOperation) {
	s.version++
	version := s.version
	summary := summarize(s.lines)
	records := snapshotLines(s.lines)
	observers := make([]Observer, 0, len(s.observers))
	for _, sub := range s.observers {
		observers = append(observers, sub.fn)
	}

	s.notifyMu.Lock()
	s.mu.Unlock()
	for _, fn := range observers {
		fn(summary)
	}
	s.notifyMu.Unlock()

	s.metrics.IncCartMutation(op.String())
	s.persist(ctx, op, version, records)
}

func (s *Store) persist(ctx context.Context, op enums.CartOperation, version uint64, records []SnapshotLine) {
	payload, err := EncodeSnapshot(version, records)
	if err != nil {
		s.persistFailed(ctx, op, err)
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if version <= s.persistedVersion {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	if err := s.snapshots.SaveSnapshot(writeCtx, s.sessionID, payload); err != nil {
		s.persistFailed(ctx, op, err)
		return
	}
	s.persistedVersion = version
	s.unsaved.Store(false)
	s.degraded.Store(false)
}

func (s *Store) persistFailed(ctx context.Context, op enums.CartOperation, err error) {
	s.degraded.Store(true)
	s.unsaved.Store(true)
	s.metrics.IncPersistenceFailure("save")
	ctx = s.logg.WithFields(ctx, map[string]any{"session_id": s.sessionID, "op": op.String()})
	s.logg.Error(ctx, "cart snapshot write failed", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "save cart snapshot"))
}

func (s *Store) rehydrate(ctx context.Context, prices PriceLookup) {
	ctx = s.logg.WithSessionID(ctx, s.sessionID)
	raw, found, err := s.snapshots.LoadSnapshot(ctx, s.sessionID)
	if err != nil {
		s.degraded.Store(true)
		s.metrics.IncPersistenceFailure("load")
		s.logg.Error(ctx, "cart snapshot read failed", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load cart snapshot"))
		return
	}
	if !found {
		return
	}
	snapshot, err := DecodeSnapshot(raw)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discarding corrupt cart snapshot")
		return
	}

	lines := make([]Line, 0, len(snapshot.Lines))
	for _, record := range snapshot.Lines {
		price, err := prices.UnitPrice(ctx, record.ProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				s.logg.Info(s.logg.WithField(ctx, "product_id", record.ProductID.String()), "dropping unavailable product from cart")
				continue
			}
			s.degraded.Store(true)
			s.metrics.IncPersistenceFailure("load")
			s.logg.Error(ctx, "cart rehydration price lookup failed", err)
			return
		}
		lines = append(lines, Line{
			Key:       LineKey{ProductID: record.ProductID, Variant: record.Variant},
			Quantity:  record.Quantity,
			UnitPrice: price,
		})
	}

	s.mu.Lock()
	s.lines = lines
	s.version = snapshot.Version
	s.mu.Unlock()
	s.persistMu.Lock()
	s.persistedVersion = snapshot.Version
	s.persistMu.Unlock()
}

func summarize(lines []Line) Summary {
	return Summary{
		Lines:      append([]Line(nil), lines...),
		TotalItems: totalItems(lines),
		TotalPrice: totalPrice(lines),
	}
}

func totalItems(lines []Line) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

func totalPrice(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return total
}

func snapshotLines(lines []Line) []SnapshotLine {
	out := make([]SnapshotLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, SnapshotLine{
			ProductID: line.Key.ProductID,
			Variant:   line.Key.Variant,
			Quantity:  line.Quantity,
		})
	}
	return out
}
