// Package sidecar runs a long-lived process that probes the AISHE server and
// publishes its health over gRPC health checking and Prometheus.
package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/abdhe/aishe-client/pkg/aishe"
)

// ServiceName is the gRPC health service name that tracks the AISHE server.
const ServiceName = "aishe"

// DefaultProbeInterval is used when Config.ProbeInterval is not positive.
const DefaultProbeInterval = 30 * time.Second

// HealthChecker queries the AISHE server. *orchestrator.Orchestrator
// implements it.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (*aishe.HealthStatus, error)
}

// Config holds the sidecar configuration.
type Config struct {
	Checker       HealthChecker
	GRPCAddr      string
	MetricsAddr   string
	ProbeInterval time.Duration
	Logger        zerolog.Logger
}

// Status is the last probe result, served as JSON on /status.
type Status struct {
	Healthy   bool                `json:"healthy"`
	Health    *aishe.HealthStatus `json:"health,omitempty"`
	Error     string              `json:"error,omitempty"`
	ErrorKind string              `json:"error_kind,omitempty"`
	CheckedAt time.Time           `json:"checked_at"`
}

// Sidecar serves grpc.health.v1 and an HTTP mux with /metrics, /healthz and
// /status.
type Sidecar struct {
	cfg    Config
	health *health.Server
	logger zerolog.Logger

	mu   sync.RWMutex
	last Status
}

// New creates a sidecar. Both services start NOT_SERVING until the first
// probe completes.
func New(cfg Config) *Sidecar {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Sidecar{
		cfg:    cfg,
		health: hs,
		logger: cfg.Logger.With().Str("component", "sidecar").Logger(),
	}
}

// Last returns the most recent probe result.
func (s *Sidecar) Last() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Probe checks the server once and publishes the result.
func (s *Sidecar) Probe(ctx context.Context) Status {
	st := Status{CheckedAt: time.Now()}
	h, err := s.cfg.Checker.CheckHealth(ctx)
	if err != nil {
		st.Error = err.Error()
		st.ErrorKind = aishe.Kind(err)
		s.logger.Warn().Err(err).Str("kind", st.ErrorKind).Msg("health probe failed")
	} else {
		st.Health = h
		st.Healthy = h.Healthy()
		if !st.Healthy {
			s.logger.Warn().Str("status", h.Status).Bool("ollama_accessible", h.ServiceAccessible).Msg("server not healthy")
		}
	}

	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if st.Healthy {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", serving)
	s.health.SetServingStatus(ServiceName, serving)

	s.mu.Lock()
	s.last = st
	s.mu.Unlock()
	return st
}

// Handler returns the HTTP mux.
func (s *Sidecar) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		st := s.Last()
		w.Header().Set("Content-Type", "application/json")
		if !st.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(st)
	})
	return mux
}

// Run listens on the configured addresses and serves until ctx is done.
func (s *Sidecar) Run(ctx context.Context) error {
	grpcLis, err := net.Listen("tcp", s.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("sidecar: listen gRPC %s: %w", s.cfg.GRPCAddr, err)
	}
	httpLis, err := net.Listen("tcp", s.cfg.MetricsAddr)
	if err != nil {
		grpcLis.Close()
		return fmt.Errorf("sidecar: listen metrics %s: %w", s.cfg.MetricsAddr, err)
	}
	return s.Serve(ctx, grpcLis, httpLis)
}

// Serve serves on the given listeners until ctx is done, then shuts both
// servers down gracefully.
func (s *Sidecar) Serve(ctx context.Context, grpcLis, httpLis net.Listener) error {
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, s.health)
	reflection.Register(grpcServer)

	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", grpcLis.Addr().String()).Msg("gRPC health server listening")
		if err := grpcServer.Serve(grpcLis); err != nil {
			return fmt.Errorf("sidecar: gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.Info().Str("addr", httpLis.Addr().String()).Msg("metrics server listening")
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sidecar: metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.probeLoop(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info().Msg("shutting down")
		s.health.Shutdown()
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("sidecar: metrics shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *Sidecar) probeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		s.Probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
