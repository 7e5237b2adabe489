// Package server exposes bracket reconstruction over HTTP.
//
// Routes:
//
//	POST /v1/reconstruct          ranking, rounds and links of a round document
//	POST /v1/pairs                advancement links only
//	POST /v1/compare?a=..&b=..    relative order of two entrants
//	GET  /healthz                 liveness
//	GET  /metrics                 Prometheus exposition, when enabled
//
// Round documents are JSON or YAML. The format follows the "format" query
// parameter, then the Content-Type header, then the document itself.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/internal/service"
)

const idleTimeout = 120 * time.Second

// Config holds the listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

// Deps holds injectable dependencies.
type Deps struct {
	// Service runs the reconstructions. Required.
	Service *service.Service

	Tracer trace.Tracer
	Logger *slog.Logger

	// Metrics counts every routed request. Nil disables request metrics.
	Metrics *observability.Metrics

	// MetricsHandler serves /metrics. Nil leaves the route unregistered.
	MetricsHandler http.Handler

	// ValidateSchema checks request bodies against the rounds schema.
	ValidateSchema bool
}

// Server is a running HTTP listener.
type Server struct {
	server   *http.Server
	listener net.Listener
	done     chan error
}

// NewHandler builds the routed and instrumented handler.
func NewHandler(cfg Config, deps Deps) http.Handler {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	api := &api{
		svc:      deps.Service,
		logger:   logger,
		maxBody:  cfg.MaxBodyBytes,
		validate: deps.ValidateSchema,
	}

	mux := http.NewServeMux()
	route := func(pattern string, handler http.Handler) {
		mux.Handle(pattern, observability.Route(tracer, deps.Metrics, pattern, handler))
	}

	route("POST /v1/reconstruct", http.HandlerFunc(api.handleReconstruct))
	route("POST /v1/pairs", http.HandlerFunc(api.handlePairs))
	route("POST /v1/compare", http.HandlerFunc(api.handleCompare))
	route("GET /healthz", http.HandlerFunc(handleHealth))

	if deps.MetricsHandler != nil {
		route("GET /metrics", deps.MetricsHandler)
	}

	return mux
}

// Start listens on cfg.Addr and serves in the background until Shutdown.
func Start(ctx context.Context, cfg Config, deps Deps) (*Server, error) {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	srv := &Server{
		server: &http.Server{
			Handler:           NewHandler(cfg, deps),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       idleTimeout,
		},
		listener: listener,
		done:     make(chan error, 1),
	}

	go func() {
		serveErr := srv.server.Serve(listener)
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}

		srv.done <- serveErr
	}()

	return srv, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Done reports the serve loop result once it stops.
func (s *Server) Done() <-chan error {
	return s.done
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	return nil
}

func handleHealth(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("ok\n"))
}
