package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/maison-storefront/internal/cart"
	"github.com/angelmondragon/maison-storefront/internal/catalog"
	"github.com/angelmondragon/maison-storefront/internal/drawer"
	"github.com/angelmondragon/maison-storefront/internal/newsletter"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
	"github.com/angelmondragon/maison-storefront/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

const defaultIdleTTL = 2 * time.Hour

// Dependencies are shared by every session the registry creates.
type Dependencies struct {
	Snapshots         cart.SnapshotStore
	Products          ProductCatalog
	Feed              FeedSource
	Taxonomy          catalog.Taxonomy
	Endpoint          newsletter.Endpoint
	Logger            *logger.Logger
	Metrics           *metrics.StorefrontMetrics
	Validator         *validator.Validate
	CartWriteTimeout  time.Duration
	NewsletterTimeout time.Duration
	IdleTTL           time.Duration
	Now               func() time.Time
}

// Registry creates sessions on first use and evicts idle ones.
type Registry struct {
	deps Dependencies

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry validates dependencies and applies defaults.
func NewRegistry(deps Dependencies) (*Registry, error) {
	if deps.Snapshots == nil {
		return nil, errors.New("snapshot store required")
	}
	if deps.Products == nil {
		return nil, errors.New("product catalog required")
	}
	if deps.Feed == nil {
		return nil, errors.New("feed source required")
	}
	if deps.Endpoint == nil {
		return nil, errors.New("newsletter endpoint required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = defaultIdleTTL
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if len(deps.Taxonomy.Categories()) == 0 {
		deps.Taxonomy = catalog.NewTaxonomy(nil)
	}
	return &Registry{deps: deps, sessions: make(map[string]*Session)}, nil
}

// Get returns the session for id, creating it and rehydrating its cart on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("session id required")
	}
	now := r.deps.Now()

	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.touch(now)
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	created, err := r.newSession(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		created.Newsletter.Dispose()
		existing.touch(now)
		return existing, nil
	}
	created.touch(now)
	r.sessions[id] = created
	r.deps.Metrics.SetActiveSessions(len(r.sessions))
	r.deps.Logger.Info(r.deps.Logger.WithSessionID(ctx, id), "storefront session created")
	return created, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than IdleTTL, disposing their
// newsletter flow and retrying any unsaved cart snapshot. It returns the
// number of evicted sessions.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.deps.Now().Add(-r.deps.IdleTTL)

	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	for _, s := range evicted {
		if err := r.release(ctx, s); err != nil {
			r.deps.Logger.Error(r.deps.Logger.WithSessionID(ctx, s.ID), "flush evicted cart failed", err)
		}
	}
	r.deps.Metrics.SetActiveSessions(remaining)
	return len(evicted)
}

// Close releases every session and reports all flush failures together.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	var errs error
	for _, s := range sessions {
		errs = multierr.Append(errs, r.release(ctx, s))
	}
	r.deps.Metrics.SetActiveSessions(0)
	return errs
}

func (r *Registry) release(ctx context.Context, s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Newsletter.Dispose()
	return s.Cart.Flush(ctx)
}

func (r *Registry) newSession(ctx context.Context, id string) (*Session, error) {
	store, err := cart.Open(ctx, id, cart.Options{
		Snapshots:    r.deps.Snapshots,
		Prices:       r.deps.Products,
		Logger:       r.deps.Logger,
		Metrics:      r.deps.Metrics,
		WriteTimeout: r.deps.CartWriteTimeout,
	})
	if err != nil {
		return nil, err
	}
	flow, err := newsletter.NewFlow(newsletter.FlowOptions{
		Endpoint:  r.deps.Endpoint,
		Logger:    r.deps.Logger,
		Metrics:   r.deps.Metrics,
		Timeout:   r.deps.NewsletterTimeout,
		Validator: r.deps.Validator,
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:         id,
		Cart:       store,
		Drawer:     drawer.New(),
		Listing:    NewListing(r.deps.Feed, r.deps.Taxonomy),
		Newsletter: flow,
		products:   r.deps.Products,
	}, nil
}
