// ABOUTME: Server lifecycle: builds the mux, runs the HTTP listener and shuts down cleanly
// ABOUTME: Owns the store, idempotency cache and metrics for the process

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/2389/personal-crm/internal/auth"
	"github.com/2389/personal-crm/internal/config"
	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/dedupe"
	"github.com/2389/personal-crm/internal/metrics"
	"github.com/2389/personal-crm/internal/store"
	"github.com/2389/personal-crm/internal/webui"
)

// Server serves the JSON API, the web UI and the health endpoints.
type Server struct {
	config     *config.Config
	store      store.Store
	svc        *crm.Service
	dedupe     *dedupe.Cache
	metrics    *metrics.Metrics // nil when metrics are disabled
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a Server over s. The server takes ownership of s and closes it on Shutdown.
func New(cfg *config.Config, s store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ttl := cfg.Idempotency.TTL
	if ttl <= 0 {
		ttl = config.DefaultIdempotencyTTL
	}

	srv := &Server{
		config: cfg,
		store:  s,
		dedupe: dedupe.New(ttl),
		logger: logger.With("component", "server"),
	}

	if cfg.Metrics.Enabled {
		m, err := metrics.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating metrics: %w", err)
		}
		if err := m.WatchClients(s); err != nil {
			return nil, fmt.Errorf("registering client gauge: %w", err)
		}
		srv.metrics = m
		s = metrics.InstrumentStore(s, m)
	}
	srv.svc = crm.NewService(s, logger)
	if srv.metrics != nil {
		srv.svc.SetRejectionRecorder(srv.metrics)
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /health/ready", srv.handleReady)

	if srv.metrics != nil {
		mux.Handle("GET "+cfg.Metrics.Path, srv.metrics.Handler())
		srv.logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}

	if err := srv.registerAPIRoutes(mux); err != nil {
		return nil, err
	}

	webui.New(srv.svc, logger).RegisterRoutes(mux)

	var h http.Handler = mux
	if srv.metrics != nil {
		h = srv.metrics.Middleware(h)
	}
	srv.handler = srv.logRequests(h)

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// registerAPIRoutes registers the /api routes, behind bearer auth when a secret is configured.
func (s *Server) registerAPIRoutes(mux *http.ServeMux) error {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/clients", s.handleListClients)
	api.HandleFunc("POST /api/clients", s.handleCreateClient)
	api.HandleFunc("GET /api/clients/count", s.handleCountClients)
	api.HandleFunc("GET /api/clients/{id}", s.handleGetClient)
	api.HandleFunc("PUT /api/clients/{id}", s.handleUpdateClient)
	api.HandleFunc("DELETE /api/clients/{id}", s.handleDeleteClient)
	api.HandleFunc("GET /api/profile", s.handleGetProfile)
	api.HandleFunc("PUT /api/profile", s.handleSaveProfile)
	api.HandleFunc("GET /api/activity", s.handleActivity)

	if !s.config.Auth.Enabled() {
		mux.Handle("/api/", api)
		s.logger.Warn("HTTP auth disabled - no jwt_secret configured")
		return nil
	}

	verifier, err := auth.NewJWTVerifier([]byte(s.config.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating JWT verifier: %w", err)
	}
	mux.Handle("/api/", auth.RequireBearer(verifier)(api))
	s.logger.Info("HTTP auth middleware enabled")
	return nil
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and blocks until ctx is canceled
// or the listener fails. Returns nil after a graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		_ = s.Shutdown(context.Background())
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("context canceled, initiating shutdown")
		return s.gracefulShutdown()
	})

	return g.Wait()
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() since the run context is already canceled.
func (s *Server) gracefulShutdown() error {
	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and releases the store and cache.
// Only the first call does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.logger.Info("shutting down server")

		var errs []error
		errs = appendCloseError(errs, "HTTP shutdown", s.httpServer.Shutdown(ctx))
		errs = appendCloseError(errs, "store close", s.store.Close())
		s.dedupe.Close()

		s.shutdownErr = errors.Join(errs...)
	})
	return s.shutdownErr
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// requestIDHeader carries the per-request id in both directions.
const requestIDHeader = "X-Request-ID"

// logRequests tags each request with an id and logs it once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
