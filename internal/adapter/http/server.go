package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/eia-switch-etl/internal/domain"
)

// ReadinessChecker reports whether a dependency is ready.
type ReadinessChecker = sharedobs.ReadinessChecker

// CheckFunc adapts a plain function, such as a database ping, to a
// ReadinessChecker.
type CheckFunc func(ctx context.Context) error

// CheckReadiness calls f.
func (f CheckFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// Check is a named readiness dependency reported by /readyz.
type Check struct {
	Name    string
	Checker ReadinessChecker
}

// checkSet reports every failing check, prefixed with its name.
type checkSet []Check

func (cs checkSet) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range cs {
		if err := c.Checker.CheckReadiness(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

// RunReporter exposes the most recent pipeline run.
type RunReporter interface {
	LastRun() (domain.RunSummary, bool)
}

// Server exposes health, readiness, run status, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /runs/last, and
// /metrics routes. runs may be nil.
func NewServer(addr string, runs RunReporter, logger *slog.Logger, checks ...Check) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      gzhttp.GzipHandler(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(checkSet(checks)))
	mux.HandleFunc("GET /runs/last", handleLastRun(runs))
	mux.Handle("GET /metrics", promhttp.Handler())

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

func handleLastRun(runs RunReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if runs == nil {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no runs recorded"})
			return
		}
		last, ok := runs.LastRun()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no runs recorded"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, last)
	}
}
