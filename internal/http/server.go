// Package http serves the dashboard page, the selector event endpoint and the
// chart/status JSON endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"autosales/internal/dashboard"
	applog "autosales/internal/log"
	"autosales/internal/middleware/ratelimit"
	"autosales/internal/middleware/security"
	"autosales/internal/middleware/trace"
	"autosales/internal/sales"
	"autosales/internal/view"
	appweb "autosales/web"
)

const (
	requestTimeout  = 7 * time.Second
	staticMaxAge    = 3600
	templatePattern = "templates/*.html"
)

// Deps are the collaborators the server needs. Sink may be nil.
type Deps struct {
	View     *view.Service
	Sessions *dashboard.SessionStore
	Counter  sales.SalesCounter
	Sink     dashboard.EventSink
	Logger   *applog.Logger

	RateLimitPerMinute int

	// Debug reparses templates from ./web on every request when that
	// directory exists.
	Debug bool
	// Templates overrides the embedded templates; used by tests.
	Templates fs.FS
}

type Server struct {
	http.Server

	dispatcher *dashboard.Dispatcher
	view       *view.Service
	sessions   *dashboard.SessionStore
	counter    sales.SalesCounter
	logger     *applog.Logger
	events     *applog.StructuredLogger

	templates    *template.Template
	templatesErr error
	templatesFS  fs.FS
	reparse      bool

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	metrics  *prometheus.Registry

	eventsDispatched *prometheus.CounterVec

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		dispatcher: dashboard.NewDispatcher(dashboard.NewDashboardRegistry(deps.View), deps.Sessions, deps.Sink),
		view:       deps.View,
		sessions:   deps.Sessions,
		counter:    deps.Counter,
		logger:     logger,
		events:     applog.NewStructuredLogger(logger),
		detector:   security.NewDetector(),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)
	s.loadTemplates(deps)
	s.metrics = s.newMetricsRegistry()

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /ui/event", limited(http.HandlerFunc(s.handleEvent)))
	mux.Handle("GET /ui/status", limited(http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /api/charts/{kind}", limited(http.HandlerFunc(s.handleChart)))
	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metricsHandler())
}

// loadTemplates parses the page templates once, unless debug mode can serve
// them from disk.
func (s *Server) loadTemplates(deps Deps) {
	s.templatesFS = deps.Templates
	if s.templatesFS == nil {
		s.templatesFS = appweb.TemplatesFS
		if deps.Debug {
			if _, err := os.Stat("web/templates"); err == nil {
				s.templatesFS = os.DirFS("web")
				s.reparse = true
			}
		}
	}

	s.templates, s.templatesErr = parseTemplates(s.templatesFS)
	if s.templatesErr != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, s.templatesErr)
	}
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	t, err := template.ParseFS(fsys, templatePattern)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) pageTemplates() (*template.Template, error) {
	if s.reparse {
		return parseTemplates(s.templatesFS)
	}
	if s.templates == nil {
		return nil, s.templatesErr
	}
	return s.templates, nil
}

// Shutdown stops the limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// ListenAndServe runs until Shutdown; a clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	return nil
}
