// Package httpapi exposes the prediction API plus the health, readiness, and
// metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/commute-comfort/internal/domain"
)

// PredictionService computes a prediction on demand.
type PredictionService interface {
	Predict(ctx context.Context, period domain.Period) (domain.PredictionResult, error)
}

// LatestProvider serves the most recent scheduled prediction per period.
type LatestProvider interface {
	Latest(ctx context.Context, period domain.Period) (domain.PredictionResult, bool)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the prediction HTTP API.
type Server struct {
	httpServer *http.Server
	service    PredictionService
	latest     LatestProvider
	logger     *slog.Logger
}

// NewServer wires the routes. On-demand predictions can take several seconds
// against a slow upstream, hence the generous write timeout.
func NewServer(addr string, service PredictionService, latest LatestProvider, ready ReadinessChecker, logger *slog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		latest:  latest,
		logger:  logger,
	}

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", handleReady(ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/prediction", s.handlePredict).Methods(http.MethodGet)
	api.HandleFunc("/prediction/latest", s.handleLatest).Methods(http.MethodGet)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handlePredict computes a fresh prediction for the requested period.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	result, err := s.service.Predict(r.Context(), period)
	if err != nil {
		s.writePredictionError(w, period, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleLatest serves the last scheduled prediction without touching the
// upstream.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	result, found := s.latest.Latest(r.Context(), period)
	if !found {
		writeError(w, http.StatusNotFound, "no prediction computed yet for period "+string(period))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writePredictionError(w http.ResponseWriter, period domain.Period, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		writeError(w, http.StatusNotFound, "not enough observations to score period "+string(period))
	default:
		// Upstream fetch or format failures; the request itself was fine.
		s.logger.Error("prediction request failed", "period", period, "error", err)
		writeError(w, http.StatusBadGateway, "observation source unavailable")
	}
}

// periodParam parses the period query parameter, defaulting to "now". Writes
// a 400 and returns false on an unknown period.
func periodParam(w http.ResponseWriter, r *http.Request) (domain.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return domain.PeriodNow, true
	}
	period, err := domain.ParsePeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return period, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
