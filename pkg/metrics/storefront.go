package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records storefront state activity.
type StorefrontMetrics struct {
	cartMutations       *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	newsletterOutcomes  *prometheus.CounterVec
	newsletterDuration  prometheus.Histogram
	catalogLoads        *prometheus.CounterVec
	activeSessions      prometheus.Gauge
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	persistenceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persistence_failures_total",
		Help: "Cart snapshot reads or writes that failed, by operation.",
	}, []string{"op"})
	newsletterOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "newsletter_submissions_total",
		Help: "Newsletter submissions, by outcome.",
	}, []string{"outcome"})
	newsletterDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "newsletter_endpoint_duration_seconds",
		Help:    "Duration of newsletter endpoint calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	catalogLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_loads_total",
		Help: "Catalog feed loads, by resulting status.",
	}, []string{"status"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_sessions_active",
		Help: "Storefront sessions currently held in memory.",
	})
	reg.MustRegister(cartMutations, persistenceFailures, newsletterOutcomes, newsletterDuration, catalogLoads, activeSessions)
	return &StorefrontMetrics{
		cartMutations:       cartMutations,
		persistenceFailures: persistenceFailures,
		newsletterOutcomes:  newsletterOutcomes,
		newsletterDuration:  newsletterDuration,
		catalogLoads:        catalogLoads,
		activeSessions:      activeSessions,
	}
}

// IncCartMutation counts an applied cart mutation.
func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncPersistenceFailure counts a failed snapshot load or save.
func (m *StorefrontMetrics) IncPersistenceFailure(op string) {
	if m == nil || m.persistenceFailures == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncNewsletterOutcome counts a resolved or rejected newsletter submission.
func (m *StorefrontMetrics) IncNewsletterOutcome(outcome string) {
	if m == nil || m.newsletterOutcomes == nil {
		return
	}
	m.newsletterOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveNewsletterCall records how long the subscription endpoint took.
func (m *StorefrontMetrics) ObserveNewsletterCall(duration time.Duration) {
	if m == nil || m.newsletterDuration == nil {
		return
	}
	m.newsletterDuration.Observe(duration.Seconds())
}

// IncCatalogLoad counts a catalog feed load by resulting status.
func (m *StorefrontMetrics) IncCatalogLoad(status string) {
	if m == nil || m.catalogLoads == nil {
		return
	}
	m.catalogLoads.WithLabelValues(normalizeLabel(status)).Inc()
}

// SetActiveSessions reports the number of live sessions.
func (m *StorefrontMetrics) SetActiveSessions(n int) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
