package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/maison-storefront/api/controllers"
	"github.com/angelmondragon/maison-storefront/api/middleware"
	"github.com/angelmondragon/maison-storefront/pkg/config"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
)

// RateLimitStore backs the newsletter signup throttle.
type RateLimitStore interface {
	controllers.Pinger
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient RateLimitStore,
	sessions controllers.Sessions,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	newsletterPolicy := middleware.NewRateLimitPolicy(
		"newsletter",
		cfg.Newsletter.RateLimitWindow,
		cfg.Newsletter.RateLimitIPLimit,
		cfg.Newsletter.RateLimitEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SessionID(logg))

		r.Route("/listing", func(r chi.Router) {
			r.Get("/", controllers.ListingFetch(sessions, logg))
			r.Post("/collection", controllers.ListingViewCollection(sessions, logg))
			r.Delete("/collection", controllers.ListingShowAll(sessions, logg))
			r.Post("/category", controllers.ListingSelectCategory(sessions, logg))
			r.Delete("/category", controllers.ListingClearCategory(sessions, logg))
			r.Delete("/filters", controllers.ListingClearFilters(sessions, logg))
			r.Post("/carousel/next", controllers.ListingCarouselNext(sessions, logg))
			r.Post("/carousel/prev", controllers.ListingCarouselPrev(sessions, logg))
			r.Post("/reset", controllers.ListingReset(sessions, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(sessions, logg))
			r.Delete("/", controllers.CartClear(sessions, logg))
			r.Post("/items", controllers.CartAddItem(sessions, logg))
			r.Patch("/items", controllers.CartUpdateItem(sessions, logg))
			r.Delete("/items", controllers.CartRemoveItem(sessions, logg))
			r.Post("/drawer/open", controllers.CartDrawer(sessions, true, logg))
			r.Post("/drawer/close", controllers.CartDrawer(sessions, false, logg))
		})

		r.Get("/size-guide", controllers.SizeGuideFetch())

		r.Route("/newsletter", func(r chi.Router) {
			r.Get("/", controllers.NewsletterFetch(sessions, logg))
			r.With(middleware.RateLimit(newsletterPolicy, redisClient, logg)).Post("/", controllers.NewsletterSubscribe(sessions, logg))
		})
	})

	return r
}
