// Package server wires the webhook, dashboard API, alert feed, and metrics
// endpoints into one HTTP server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/analytics"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/metrics"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/webhook"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/ws"
)

// Server is the HTTP surface of the resolution agent.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Deps carries everything the routes need. AlertFeed may be nil when the live
// feed is disabled.
type Deps struct {
	Webhook   *webhook.Handler
	Analytics *analytics.Service
	Collector *metrics.Collector
	AlertFeed *ws.Hub
	Registry  *prometheus.Registry
}

// New builds the server on the given listen address.
func New(addr string, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := newMetrics(reg)

	api := &apiHandler{analytics: deps.Analytics, collector: deps.Collector, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /webhook", deps.Webhook.Verify)
	mux.HandleFunc("POST /webhook", deps.Webhook.Receive)

	mux.HandleFunc("GET /api/analytics/chatbot", api.chatbotMetrics)
	mux.HandleFunc("GET /api/analytics/refunds", api.refundStatistics)
	mux.HandleFunc("GET /api/analytics/ratings", api.serviceRatings)
	mux.HandleFunc("GET /api/analytics/orders", api.orderAnalytics)
	mux.HandleFunc("GET /api/conversations", api.recentConversations)
	mux.HandleFunc("GET /api/alerts", api.listAlerts)
	mux.HandleFunc("POST /api/alerts/{id}/resolve", api.resolveAlert)
	mux.HandleFunc("GET /api/stats", api.pipelineStats)

	if deps.AlertFeed != nil {
		mux.Handle("GET /ws/alerts", deps.AlertFeed)
	}

	mux.Handle("GET /metrics", m.handler(reg))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      m.instrument(mux),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 90 * time.Second, // webhook turns wait on the LLM
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Handler exposes the routing tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type apiHandler struct {
	analytics *analytics.Service
	collector *metrics.Collector
	logger    *slog.Logger
}

func (h *apiHandler) chatbotMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.ChatbotMetrics(r.Context())
	h.respond(w, stats, err)
}

func (h *apiHandler) refundStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.RefundStatistics(r.Context())
	h.respond(w, stats, err)
}

func (h *apiHandler) serviceRatings(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.ServiceRatings(r.Context())
	h.respond(w, stats, err)
}

func (h *apiHandler) orderAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.OrderAnalytics(r.Context())
	h.respond(w, stats, err)
}

func (h *apiHandler) recentConversations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.fail(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	msgs, err := h.analytics.RecentConversations(r.Context(), r.URL.Query().Get("user_id"), limit)
	h.respond(w, msgs, err)
}

func (h *apiHandler) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.analytics.Alerts(r.Context(), r.URL.Query().Get("status"))
	h.respond(w, alerts, err)
}

func (h *apiHandler) resolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID := r.PathValue("id")
	alert, err := h.analytics.ResolveAlert(r.Context(), alertID)
	if errors.Is(err, db.ErrNotFound) {
		h.fail(w, http.StatusNotFound, "alert not found or already resolved")
		return
	}
	h.respond(w, alert, err)
}

func (h *apiHandler) pipelineStats(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.collector.Snapshot(), nil)
}

func (h *apiHandler) respond(w http.ResponseWriter, payload any, err error) {
	if err != nil {
		h.logger.Error("api request failed", "error", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encoding api response failed", "error", err)
	}
}

func (h *apiHandler) fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
