package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the corpus pipeline,
// organized by subsystem: resolution, providers, enrichment and search.
// All collectors are registered via promauto against the supplied
// registerer.
type Metrics struct {
	// ResolutionsCompleted counts identifier resolutions that produced a record.
	ResolutionsCompleted prometheus.Counter

	// ResolutionsFailed counts resolutions that ended in an error.
	ResolutionsFailed prometheus.Counter

	// ProviderRequests counts provider API calls, labeled by provider and endpoint.
	ProviderRequests *prometheus.CounterVec

	// ProviderRequestDuration observes provider call duration in seconds,
	// labeled by provider.
	ProviderRequestDuration *prometheus.HistogramVec

	// EnrichmentOutcomes counts batch enrichment results, labeled by outcome
	// (succeeded, failed, skipped).
	EnrichmentOutcomes *prometheus.CounterVec

	// SearchRequests counts search API calls.
	SearchRequests prometheus.Counter

	// SearchDuration observes search execution time in seconds.
	SearchDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ResolutionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "resolver",
			Name:      "resolutions_completed_total",
			Help:      "Identifier resolutions that produced a canonical record.",
		}),
		ResolutionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "resolver",
			Name:      "resolutions_failed_total",
			Help:      "Identifier resolutions that ended in an error.",
		}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "providers",
			Name:      "requests_total",
			Help:      "Requests to metadata provider APIs.",
		}, []string{"provider", "endpoint"}),
		ProviderRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "corpus",
			Subsystem: "providers",
			Name:      "request_duration_seconds",
			Help:      "Duration of metadata provider API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		EnrichmentOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "enrich",
			Name:      "outcomes_total",
			Help:      "Batch enrichment per-record outcomes.",
		}, []string{"outcome"}),
		SearchRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corpus",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search API requests served.",
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "corpus",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search execution time.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
