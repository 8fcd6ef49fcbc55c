// Package httpapi implements the HTTP wrapper exposing POST /compute_costs.
// It is a thin adapter around internal/valuation/engine: this package owns
// request decoding, validation, metrics, and logging, and never touches
// the fixed-point iteration itself.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironforge/factory-valuation/internal/valuation/engine"
	"github.com/ironforge/factory-valuation/pkg/valuation"
)

const defaultIterations = 100

// Server serves the valuation HTTP API.
type Server struct {
	logger   *slog.Logger
	validate *validator.Validate
	router   chi.Router
}

// NewServer builds a Server with routes registered. If logger is nil, a
// stderr text logger is used by default.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	s := &Server{
		logger:   logger,
		validate: validator.New(),
	}

	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Post("/compute_costs", s.handleComputeCosts)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request handled",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleComputeCosts(w http.ResponseWriter, r *http.Request) {
	var req valuation.ComputeCostsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "decoding request: "+err.Error())
		return
	}
	if req.Iterations == 0 {
		req.Iterations = defaultIterations
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	eng, err := engine.New(&req.Config)
	if err != nil {
		var cfgErr *valuation.ConfigError
		if errors.As(err, &cfgErr) {
			s.writeError(w, http.StatusBadRequest, cfgErr.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, "building engine: "+err.Error())
		return
	}

	start := time.Now()
	costs := eng.ComputeAllCosts(req.Iterations)
	computeDuration.Observe(time.Since(start).Seconds())

	requestsTotal.WithLabelValues("ok").Inc()
	s.writeJSON(w, http.StatusOK, valuation.ComputeCostsResponse{Costs: costs})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	requestsTotal.WithLabelValues("error").Inc()
	s.writeJSON(w, status, map[string]string{"error": message})
}
