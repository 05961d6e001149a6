package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/site-crawler/internal/delivery/http/handler"
	"github.com/user/site-crawler/internal/delivery/http/middleware"
	"github.com/user/site-crawler/pkg/metrics"
)

// New wires the API routes. gatherer backs /metrics and should be the
// registry m was registered with.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Post("/crawl", h.HandleSubmitCrawl)
		r.Get("/status", h.HandleGetCrawlStatus)
	})

	return r
}
