// Package http serves the expense API that the rest client talks to. It is a
// small stand-in for the hosted backend, persisting to SQLite.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"pocketspend/internal/core"
	"pocketspend/internal/log"
	"pocketspend/internal/middleware/ratelimit"
	"pocketspend/internal/middleware/security"
	"pocketspend/internal/middleware/trace"
)

// Repository is the data the server exposes.
type Repository interface {
	ListUsers(ctx context.Context) ([]core.User, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) (core.Expense, error)
	Ping(ctx context.Context) error
}

// Config tunes the server. A zero RateLimit uses the limiter default.
type Config struct {
	Addr      string
	RateLimit int
}

type Server struct {
	http.Server
	repo             Repository
	logger           *log.Logger
	errLog           *log.StructuredLogger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	started       time.Time
	expensesTotal int64
	deletedTotal  int64
	shutdownOnce  sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, repo Repository, logger *log.Logger) *Server {
	logger = log.OrNop(logger).WithComponent(log.ComponentHTTP)
	detector := security.NewDetector(logger)

	s := &Server{
		repo:             repo,
		logger:           logger,
		errLog:           log.NewStructuredLogger(logger),
		securityDetector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimit},
			ratelimit.WithLogger(logger)),
		traceMiddleware: trace.NewMiddleware(detector.ExtractClientIP, logger),
		started:         time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/v1/users", s.handleListUsers)
	mux.HandleFunc("GET /api/v1/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/v1/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/v1/expenses/{id}", s.handleDeleteExpense)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(detector.ExtractClientIP, true)(h)
	h = trace.LoggerMiddleware(logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultAPIHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = s.traceMiddleware.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the limiter and drains the server. Only the first call
// does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) countCreated() { atomic.AddInt64(&s.expensesTotal, 1) }
func (s *Server) countDeleted() { atomic.AddInt64(&s.deletedTotal, 1) }
