package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors of the crawler.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PagesProcessed prometheus.Counter
	PagesSaved     prometheus.Counter
	SaveErrors     prometheus.Counter
	FetchErrors    *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	LinksEnqueued  prometheus.Counter
	LinksDropped   *prometheus.CounterVec
	FrontierSize   prometheus.Gauge
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		PagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_pages_processed_total",
			Help: "URLs popped from the frontier, whatever the outcome.",
		}),
		PagesSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_pages_saved_total",
			Help: "Page bodies persisted to the sink.",
		}),
		SaveErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_save_errors_total",
			Help: "Page bodies that could not be persisted.",
		}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_fetch_errors_total",
			Help: "Failed fetches by kind.",
		}, []string{"kind"}), // network, http_status, too_large
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Duration of page fetches.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LinksEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "crawler_links_enqueued_total",
			Help: "Discovered links accepted into the frontier.",
		}),
		LinksDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_links_dropped_total",
			Help: "Discovered links rejected before reaching the frontier.",
		}, []string{"reason"}),
		FrontierSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_frontier_size",
			Help: "Current number of URLs waiting in the frontier.",
		}),
	}
}
