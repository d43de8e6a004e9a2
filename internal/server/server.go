// Package server exposes the dashboard over HTTP: the page and its assets,
// the registry listing, surface and preview data, and the SSE stream of a run.
package server

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mariolpantunes/optviewer/internal/config"
	"github.com/mariolpantunes/optviewer/internal/registry"
	"github.com/mariolpantunes/optviewer/internal/ui"
)

// Server represents the HTTP server
type Server struct {
	cfg      *config.Config
	registry *registry.Registry
	cache    *cache.Cache // nil when caching is disabled
	metrics  *Metrics
	runs     *RunTracker
	assets   fs.FS

	server *http.Server

	// cancelled on Shutdown so open streams end and their runs stop
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, reg *registry.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		registry: reg,
		metrics:  NewMetrics(),
		runs:     NewRunTracker(),
		assets:   ui.Assets(),
	}
	if cfg.Server.CacheTTL > 0 {
		s.cache = cache.New(cfg.Server.CacheTTL, 2*cfg.Server.CacheTTL)
	}
	if cfg.Server.AssetsDir != "" {
		s.assets = os.DirFS(cfg.Server.AssetsDir)
	}
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())
	return s
}

// Handler builds the routed and wrapped handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register UI routes
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServerFS(s.assets)))

	// Register API routes
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/surface", s.handleSurface)
	mux.HandleFunc("/preview", s.handlePreview)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/runs", s.handleRuns)

	// Operational routes
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
	}

	slog.Info("Starting HTTP server", "addr", s.cfg.Server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server. Open streams are cancelled
// first, so their handlers return promptly.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	s.cancelBase()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests and counts them
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.observeRequest(r.URL.Path, rec.status)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

// statusRecorder captures the status code while keeping the writer flushable
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
