// Package server exposes the review pipeline, activity store, and coach over
// HTTP. All /api routes require a bearer token whose subject is the owner id;
// /healthz and /metrics are open.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheRemi120/runcoach/internal/activity"
	"github.com/TheRemi120/runcoach/internal/coach"
	"github.com/TheRemi120/runcoach/internal/observe"
	"github.com/TheRemi120/runcoach/internal/pipeline"
	"github.com/TheRemi120/runcoach/pkg/capture"
	"github.com/TheRemi120/runcoach/pkg/provider"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithMetrics enables the HTTP metrics middleware.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server holds the HTTP surface of the service.
type Server struct {
	store        activity.Store
	orchestrator *pipeline.Orchestrator
	coach        *coach.Coach
	jwtSecret    string
	metrics      *observe.Metrics
	log          *slog.Logger
}

// New creates a Server.
func New(store activity.Store, orch *pipeline.Orchestrator, co *coach.Coach, jwtSecret string, opts ...Option) *Server {
	s := &Server{
		store:        store,
		orchestrator: orch,
		coach:        co,
		jwtSecret:    jwtSecret,
		log:          slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.metrics != nil {
		r.Use(observe.Middleware(s.metrics))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(s.authMiddleware)
		api.Get("/activities", s.handleListActivities)
		api.Post("/activities", s.handleCreateActivity)
		api.Post("/activities/{id}/review", s.handleAttachReview)
		api.Post("/review", s.handleVoiceReview)
		api.Get("/review/events", s.handleReviewEvents)
		api.Get("/coach", s.handleCoach)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", "error", err)
	}
}

// writeError writes a JSON error body with the given status.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		s.log.Error("request failed", "path", r.URL.Path, "status", status, "error", msg)
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeMappedError maps the error taxonomy onto HTTP statuses: validation
// failures 422, missing credentials 503, denied capture 403, failing remote
// dependencies 502, a busy pipeline 409, unknown records 404, everything else
// 500.
func (s *Server) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *pipeline.ValidationError
		cerr *provider.ConfigError
		serr *provider.ServiceError
	)
	switch {
	case errors.As(err, &verr):
		s.writeError(w, r, http.StatusUnprocessableEntity, verr.Error())
	case errors.As(err, &cerr):
		s.writeError(w, r, http.StatusServiceUnavailable, cerr.Error())
	case errors.Is(err, capture.ErrPermission):
		s.writeError(w, r, http.StatusForbidden, err.Error())
	case errors.As(err, &serr):
		s.writeError(w, r, http.StatusBadGateway, serr.Error())
	case errors.Is(err, pipeline.ErrBusy):
		s.writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, activity.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}
