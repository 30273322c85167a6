package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/textremind/internal/logging"
	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/observability"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request bodies; every payload is a handful of short strings.
const maxBodyBytes = 64 << 10

// Server exposes a ports.Transport (usually *service.Service) as a JSON API.
type Server struct {
	backend  ports.Transport
	logger   *slog.Logger
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	health   func(ctx context.Context) error
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records request metrics into m and serves gatherer on /metrics.
func WithMetrics(m *observability.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithHealthCheck makes /health report 503 when check fails.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.health = check
	}
}

// NewHandler creates the HTTP handler for backend.
func NewHandler(backend ports.Transport, opts ...Option) http.Handler {
	s := &Server{
		backend: backend,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	for _, endpoint := range domain.Endpoints {
		r.Post("/"+endpoint, s.instrument(endpoint, s.handle(endpoint)))
	}
	r.Get("/health", s.GetHealth)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

// enableCORS lets the browser front-end call the API from any origin.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(6*60*60))
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(endpoint, status, time.Since(start))
	}
}

// handle serves POST /{endpoint}.
func (s *Server) handle(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{}
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			s.logger.Warn("invalid request body", "endpoint", endpoint, "error", err)
			writeError(w, &domain.APIError{
				Status:  http.StatusBadRequest,
				Type:    domain.ErrorTypeInvalid,
				Message: "Could not decode request.",
			})
			return
		}

		resp, err := s.backend.Send(r.Context(), endpoint, payload)
		if err != nil {
			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) {
				s.logger.Error("request failed", "endpoint", endpoint, "error", err,
					"request_id", middleware.GetReqID(r.Context()))
				apiErr = &domain.APIError{
					Status:  http.StatusInternalServerError,
					Type:    domain.ErrorTypeAPI,
					Message: "Something went wrong.",
				}
			}
			writeError(w, apiErr)
			return
		}
		if resp == nil {
			resp = map[string]any{}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err *domain.APIError) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, err)
}
