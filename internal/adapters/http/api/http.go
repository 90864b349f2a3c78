// Package api serves the stats HTTP API.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/candle/internal/adapters/http/swagger"
	"github.com/okian/candle/internal/app"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/stats"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 1 << 16
)

// Dependencies required by HTTP handlers. app.Service implements it.
type Dependencies interface {
	Authenticate(ctx context.Context, credential string) (model.User, error)
	Complete(ctx context.Context, user model.User, c app.Completion) (stats.PlayerStats, bool, error)
	Stats(ctx context.Context, user model.User) (stats.PlayerStats, error)
	History(ctx context.Context, user model.User, limit int) ([]model.GameRecord, error)
}

// Server wires HTTP routes for the stats API.
type Server struct {
	deps    Dependencies
	log     logger.Logger
	timeout time.Duration
	mux     *chi.Mux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates the API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		log:     logger.Nop(),
		timeout: defaultTimeout,
		mux:     chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("api")
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	swagger.Register(r)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/me", s.handleMe)
		r.Get("/stats", s.handleStats)
		r.Post("/games/complete", s.handleComplete)
		r.Get("/games/history", s.handleHistory)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = strings.TrimSpace(err.Error())
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg})
}
