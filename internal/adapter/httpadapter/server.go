package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// Check is one named readiness condition, such as the risk table being loaded
// or the refresh pipeline running.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Server serves the operational endpoints of riskd: liveness, readiness over
// the registered checks, and Prometheus metrics. Risk queries are not served
// over HTTP.
type Server struct {
	srv    *http.Server
	checks []Check
	logger *slog.Logger
}

// NewServer builds the server. The service reports ready only while every
// check passes.
func NewServer(addr string, logger *slog.Logger, checks ...Check) *Server {
	s := &Server{
		checks: checks,
		logger: logger.With("component", "http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(s))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// CheckReadiness runs the checks in registration order and joins the failures,
// each prefixed with its check name.
func (s *Server) CheckReadiness(ctx context.Context) error {
	var (
		errs    []error
		failing []string
	)
	for _, c := range s.checks {
		if err := c.Run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			failing = append(failing, c.Name)
		}
	}
	if len(errs) > 0 {
		s.logger.Warn("not ready", "failing", failing)
	}
	return errors.Join(errs...)
}

// Run listens on the configured address and serves until ctx is cancelled,
// then drains open connections for at most drain. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context, drain time.Duration) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	served := make(chan error, 1)
	go func() { served <- s.srv.Serve(ln) }()

	select {
	case err := <-served:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drain)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-served; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// ServeHTTP routes r through the server's mux without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.srv.Handler.ServeHTTP(w, r)
}
