// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/hearth/internal/domain/asset"
	"github.com/okian/hearth/internal/domain/render"
	"github.com/okian/hearth/pkg/logger"
	"github.com/okian/hearth/pkg/metrics"
)

// Route paths bound by Register.
const (
	PathHome    = "/"
	PathLive    = "/health/live"
	PathReady   = "/health/ready"
	PathFavicon = "/favicon.ico"
	PathAssets  = "/assets/*"
	PathMetrics = "/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Render(ctx context.Context, name string, data render.Context) ([]byte, error)
	Asset(ctx context.Context, name string) (asset.Entry, error)
	Favicon(ctx context.Context) (asset.Entry, error)
	Ready() bool
}

// Server wires HTTP routes for the site.
type Server struct {
	metrics      *metrics.Manager
	logger       logger.Logger
	traceHeaders bool

	homeHandler    *HomeHandler
	healthHandler  *HealthHandler
	assetHandler   *AssetHandler
	metricsHandler *MetricsHandler
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics sets the metrics manager. Defaults to metrics.Default().
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger used by handlers and middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTraceHeaders records request header contents on request spans.
func WithTraceHeaders(enabled bool) Option {
	return func(s *Server) {
		s.traceHeaders = enabled
	}
}

// NewServer creates a new server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	if s.logger == nil {
		s.logger = logger.Named("http")
	}

	s.homeHandler = NewHomeHandler(deps, s.logger)
	s.healthHandler = NewHealthHandler(deps)
	s.assetHandler = NewAssetHandler(deps, s.logger)
	s.metricsHandler = NewMetricsHandler(s.metrics)
	return s
}

// Handler builds the request pipeline: middleware chain around the router.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestID,
		Tracing(s.logger, s.traceHeaders),
		Metrics(s.metrics),
		Recovery(s.logger),
	)
	s.Register(ctx, r)
	return r
}

// Register binds every route. Binding is fixed once the server starts.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get(PathHome, s.homeHandler.HandleHome)
	r.Get(PathLive, s.healthHandler.HandleLive)
	r.Get(PathReady, s.healthHandler.HandleReady)
	r.Get(PathFavicon, s.assetHandler.HandleFavicon)
	r.Get(PathAssets, s.assetHandler.HandleAsset)
	r.Get(PathMetrics, s.metricsHandler.HandleMetrics)

	r.NotFound(http.NotFound)
}

// writeEntry sends a resolved asset.
func writeEntry(w http.ResponseWriter, entry asset.Entry) {
	h := w.Header()
	h.Set("Content-Type", entry.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(entry.Body)))
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(entry.Body)
}

func writeStatus(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(http.StatusText(status) + "\n"))
}
