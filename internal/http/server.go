package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	logpkg "bilancio/internal/log"
	"bilancio/internal/services"
)

// LedgerService is what the API needs from the rebuild service.
type LedgerService interface {
	Rebuild(ctx context.Context, runID string) (*services.RebuildSummary, error)
	Month(ctx context.Context, month string) ([]core.LedgerRow, error)
	Config() ledger.Config
}

// RebuildQueue hands rebuilds to a worker. *amqp.Client implements it.
type RebuildQueue interface {
	PublishRebuildRequest(ctx context.Context, req *amqp.RebuildRequest) error
}

// Rebuilds are expensive; a handful per minute per client is plenty.
const (
	rebuildLimit       = 6
	rebuildLimitWindow = time.Minute
	rebuildTimeout     = 2 * time.Minute
)

type Server struct {
	http.Server
	svc         LedgerService
	queue       RebuildQueue
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server. queue
// may be nil, in which case rebuilds run inside the request.
func NewServer(addr string, svc LedgerService, queue RebuildQueue, logger *logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.New(logpkg.DefaultConfig())
	}

	s := &Server{
		svc:         svc,
		queue:       queue,
		rateLimiter: newRateLimiter(rebuildLimit, rebuildLimitWindow),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logpkg.Middleware(logger))
	r.Use(logpkg.AccessLog)
	r.Use(securityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/months", s.handleListMonths)
		r.Get("/months/{month}", s.handleMonth)
		r.With(s.rateLimiter.middleware).Post("/rebuild", s.handleRebuild)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
