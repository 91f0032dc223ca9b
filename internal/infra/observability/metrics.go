package observability

import (
	"time"

	"github.com/careledger/careledger-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the CareLedger API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	suggestionsTotal  *prometheus.CounterVec
	reviewsApplied    *prometheus.CounterVec
	preferencesStored prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "careledger_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careledger_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careledger_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careledger_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		suggestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careledger_suggestions_total",
				Help: "Reconciliation suggestions produced, by type.",
			},
			[]string{"type"},
		),
		reviewsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careledger_reviews_applied_total",
				Help: "Human-confirmed review actions applied, by action.",
			},
			[]string{"action"},
		),
		preferencesStored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "careledger_vendor_preferences_stored_total",
				Help: "Vendor preferences learned from review actions.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSuggestion counts one produced suggestion by type.
func (m *Metrics) IncrSuggestion(suggestionType string) {
	m.suggestionsTotal.WithLabelValues(suggestionType).Inc()
}

// IncrReviewApplied counts one applied review action.
func (m *Metrics) IncrReviewApplied(action string) {
	m.reviewsApplied.WithLabelValues(action).Inc()
}

// IncrPreferenceStored counts one learned vendor preference.
func (m *Metrics) IncrPreferenceStored() {
	m.preferencesStored.Inc()
}

// GetReconSnapshot returns a snapshot of reconciliation metrics for the
// GET /v1/metrics/recon endpoint.
func (m *Metrics) GetReconSnapshot() *domain.ReconMetrics {
	// Prometheus counters expose cumulative values.
	link := getCounterValue(m.suggestionsTotal, string(domain.SuggestLinkToInvoice))
	medical := getCounterValue(m.suggestionsTotal, string(domain.SuggestMarkMedical)) +
		getCounterValue(m.suggestionsTotal, string(domain.SuggestNotMedical))
	skip := getCounterValue(m.suggestionsTotal, string(domain.SuggestSkip))
	total := link + medical + skip

	cacheHits := getCounterValue(m.cacheHits, "preferences")
	cacheMisses := getCounterValue(m.cacheMisses, "preferences")

	skipRate := float64(0)
	if total > 0 {
		skipRate = skip / total
	}
	hitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		hitRate = cacheHits / (cacheHits + cacheMisses)
	}

	reviews := float64(0)
	for _, action := range []domain.SuggestionType{
		domain.SuggestLinkToInvoice, domain.SuggestMarkMedical,
		domain.SuggestNotMedical, domain.SuggestSkip,
	} {
		reviews += getCounterValue(m.reviewsApplied, string(action))
	}

	prefs := float64(0)
	pm := &dto.Metric{}
	if err := m.preferencesStored.Write(pm); err == nil && pm.Counter != nil && pm.Counter.Value != nil {
		prefs = *pm.Counter.Value
	}

	return &domain.ReconMetrics{
		SuggestionsTotal:  int64(total),
		LinkSuggestions:   int64(link),
		MedicalFlags:      int64(medical),
		SkipRate:          skipRate,
		PrefCacheHitRate:  hitRate,
		ReviewsApplied:    int64(reviews),
		PreferencesStored: int64(prefs),
		Period:            "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
