// Package server exposes the provider operations over HTTP behind the
// request rate limiter.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BenWassa/hearth/internal/hydrate"
	"github.com/BenWassa/hearth/internal/log"
	"github.com/BenWassa/hearth/internal/provider"
	"github.com/BenWassa/hearth/internal/ratelimit"
)

const shutdownTimeout = 5 * time.Second

// Config defines the dependencies of a Server.
type Config struct {
	Addr     string
	Limiter  *ratelimit.Limiter
	Client   provider.Client
	Hydrator *hydrate.Cache

	// PruneInterval is how often idle limiter state is dropped. Zero
	// disables pruning.
	PruneInterval time.Duration
	Logger        *zap.Logger
}

// Server is the HTTP front of the service.
type Server struct {
	cfg    Config
	logger *zap.Logger
}

// New validates cfg and builds a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if cfg.Client == nil {
		return nil, errors.New("provider client is required")
	}
	if cfg.Hydrator == nil {
		return nil, errors.New("hydration cache is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return &Server{cfg: cfg, logger: log.OrNop(cfg.Logger)}, nil
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withRequestID(withAccessLog(s.logger, mux))
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var tick <-chan time.Time
	if s.cfg.PruneInterval > 0 {
		ticker := time.NewTicker(s.cfg.PruneInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-tick:
			s.cfg.Limiter.Prune(s.cfg.PruneInterval)
		case <-ctx.Done():
			s.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		}
	}
}
