package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/maison-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/maison-storefront/pkg/errors"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
	"github.com/angelmondragon/maison-storefront/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheTTL    = time.Minute
	defaultLoadTimeout = 3 * time.Second
	defaultRetryDelay  = 5 * time.Second
	loadFlightKey      = "feed"
)

// Feed is a point-in-time view of the catalog.
type Feed struct {
	Status      enums.FeedStatus
	Products    []Product
	Collections []Collection
	LoadedAt    time.Time
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	CacheTTL    time.Duration
	LoadTimeout time.Duration
	// RetryDelay is the minimum gap between background refreshes after a failure.
	RetryDelay time.Duration
	Logger     *logger.Logger
	Metrics    *metrics.StorefrontMetrics
	Now        func() time.Time
}

// Loader fetches products and collections concurrently and keeps the last good
// feed for CacheTTL. Concurrent refreshes are collapsed into one source call.
type Loader struct {
	source  Source
	ttl     time.Duration
	timeout time.Duration
	retry   time.Duration
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics
	now     func() time.Time
	group   singleflight.Group

	mu        sync.RWMutex
	cached    *Feed
	lastErr   error
	lastErrAt time.Time
}

// NewLoader validates dependencies and applies defaults.
func NewLoader(source Source, opts LoaderOptions) (*Loader, error) {
	if source == nil {
		return nil, errors.New("catalog source is required")
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loader{
		source:  source,
		ttl:     opts.CacheTTL,
		timeout: opts.LoadTimeout,
		retry:   opts.RetryDelay,
		logg:    opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}, nil
}

// Load returns a fresh feed, refreshing from the source when the cache expired.
// When the refresh fails but an older feed exists, the older feed is served.
func (l *Loader) Load(ctx context.Context) (Feed, error) {
	if feed, ok := l.fresh(); ok {
		return feed, nil
	}
	ch := l.group.DoChan(loadFlightKey, func() (any, error) {
		return l.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Feed{Status: enums.FeedStatusLoading}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if stale, ok := l.cachedFeed(); ok {
				return stale, nil
			}
			return Feed{Status: enums.FeedStatusUnavailable}, res.Err
		}
		return res.Val.(Feed), nil
	}
}

// Current never blocks: it returns the cached feed, or a loading/unavailable
// placeholder, and starts a background refresh when the cache is missing or
// expired. After a failed refresh the next one waits for RetryDelay.
func (l *Loader) Current(ctx context.Context) Feed {
	feed, fresh := l.fresh()
	if !fresh && !l.coolingDown() {
		go func() {
			_, _, _ = l.group.Do(loadFlightKey, func() (any, error) {
				return l.refresh(context.WithoutCancel(ctx))
			})
		}()
	}
	if feed.Status == enums.FeedStatusReady {
		return feed
	}
	l.mu.RLock()
	failed := l.lastErr != nil
	l.mu.RUnlock()
	if failed {
		return Feed{Status: enums.FeedStatusUnavailable}
	}
	return Feed{Status: enums.FeedStatusLoading}
}

// Invalidate drops the cached feed so the next read refreshes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

func (l *Loader) fresh() (Feed, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cached == nil {
		return Feed{}, false
	}
	return *l.cached, l.now().Sub(l.cached.LoadedAt) < l.ttl
}

func (l *Loader) coolingDown() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr != nil && l.now().Sub(l.lastErrAt) < l.retry
}

func (l *Loader) cachedFeed() (Feed, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.cached == nil {
		return Feed{}, false
	}
	return *l.cached, true
}

func (l *Loader) refresh(ctx context.Context) (Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var (
		products    []Product
		collections []Collection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = l.source.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		collections, err = l.source.ListCollections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		l.mu.Lock()
		l.lastErr = err
		l.lastErrAt = l.now()
		l.mu.Unlock()
		l.metrics.IncCatalogLoad(enums.FeedStatusUnavailable.String())
		l.logg.Error(ctx, "catalog feed load failed", err)
		return Feed{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog unavailable")
	}

	if products == nil {
		products = []Product{}
	}
	if collections == nil {
		collections = []Collection{}
	}
	feed := Feed{
		Status:      enums.FeedStatusReady,
		Products:    products,
		Collections: collections,
		LoadedAt:    l.now(),
	}
	l.mu.Lock()
	l.cached = &feed
	l.lastErr = nil
	l.mu.Unlock()
	l.metrics.IncCatalogLoad(enums.FeedStatusReady.String())
	return feed, nil
}
