package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/site-crawler/internal/delivery/http/request"
	"github.com/user/site-crawler/internal/delivery/http/response"
	"github.com/user/site-crawler/internal/usecase"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	crawlManager usecase.CrawlManager
	defaults     usecase.CrawlOptions
	checks       map[string]HealthCheck
	logger       *zap.Logger
}

// NewHandler creates the API handler. defaults supplies Workers and MaxPages
// for requests that omit them; checks are run by the health endpoint.
func NewHandler(crawlManager usecase.CrawlManager, defaults usecase.CrawlOptions, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		crawlManager: crawlManager,
		defaults:     defaults,
		checks:       checks,
		logger:       logger,
	}
}

func (h *Handler) HandleSubmitCrawl(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	opts := usecase.CrawlOptions{Seed: req.URL, Workers: req.Workers, MaxPages: req.MaxPages}
	if opts.Workers == 0 {
		opts.Workers = h.defaults.Workers
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = h.defaults.MaxPages
	}

	crawlID, err := h.crawlManager.Submit(r.Context(), opts)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidOptions) {
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to submit crawl", zap.String("url", req.URL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.SubmitCrawlResponse{
		Status:  "success",
		Message: "Crawl started",
		CrawlID: crawlID,
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetCrawlStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.writeJSONError(w, "id query parameter is required", http.StatusBadRequest)
		return
	}

	status, err := h.crawlManager.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrCrawlNotFound) {
			h.writeJSONError(w, "Crawl not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get crawl status", zap.String("crawl_id", id), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.FromStatus(status))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Error("health check failed", zap.String("service", name), zap.Error(err))
			healthStatus[name] = "unhealthy"
			healthStatus["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		healthStatus[name] = "healthy"
	}
	h.writeJSON(w, code, healthStatus)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
