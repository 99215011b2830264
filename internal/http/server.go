// Package http exposes the voice expense flow as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"gastos/internal/cache"
	"gastos/internal/catalog"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/middleware/ratelimit"
	"gastos/internal/middleware/security"
	"gastos/internal/middleware/trace"
	"gastos/internal/services"
	"gastos/internal/store"
	"gastos/internal/voice"
)

// VoiceInterpreter is the voice flow; *services.VoiceService satisfies it.
type VoiceInterpreter interface {
	Interpret(ctx context.Context, userID, text string) (services.Interpretation, error)
	Confirm(ctx context.Context, userID string, f voice.DraftFields, date core.Date) (string, error)
}

// CatalogSource serves and invalidates per-user snapshots; *catalog.Cache satisfies it.
type CatalogSource interface {
	Get(ctx context.Context, userID string) (catalog.Snapshot, error)
	Invalidate(userID string)
	Stats() cache.Stats
}

// Deps are the collaborators behind the routes. Nil readers serve empty results.
type Deps struct {
	Voice     VoiceInterpreter
	Expenses  services.ExpenseCreator
	Catalog   CatalogSource
	Lister    store.ExpenseLister
	Dashboard store.DashboardReader
	// Ready checks the backend for /readyz.
	Ready func(ctx context.Context) error
}

type Option func(*Server)

// WithDefaultUser sets the user for requests without X-User-ID.
func WithDefaultUser(id string) Option {
	return func(s *Server) { s.defaultUser = id }
}

func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

type Server struct {
	http.Server
	deps        Deps
	defaultUser string
	rateLimit   int
	logger      *log.Logger
	events      *log.StructuredLogger
	now         func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	caches        *cache.Manager
	overviewCache *cache.LRUCache[core.MonthOverview]

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

const (
	overviewCacheSize = 100
	overviewCacheTTL  = 5 * time.Minute
	cacheSweepEvery   = 10 * time.Minute
	backendTimeout    = 7 * time.Second
)

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts ...Option) *Server {
	s := &Server{
		deps:        deps,
		defaultUser: "default",
		rateLimit:   ratelimit.DefaultConfig().RequestsPerMinute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.FromContext(context.Background())
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.events = log.NewStructuredLogger(s.logger)
	s.appMetrics.started = s.now()

	s.securityDetector = security.NewDetector()
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, s.logger)
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.rateLimit})

	s.overviewCache = cache.NewLRUCache[core.MonthOverview](overviewCacheSize, overviewCacheTTL)
	s.caches = cache.NewManager(s.logger.Logger)
	s.caches.Register("overview", s.overviewCache)
	if c, ok := deps.Catalog.(cache.Cleaner); ok {
		s.caches.Register("catalog", c)
	}
	s.caches.StartCleanup(cacheSweepEvery)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/voice/parse", s.handleVoiceParse)
	mux.HandleFunc("POST /api/voice/interpret", s.handleVoiceInterpret)
	mux.HandleFunc("POST /api/voice/confirm", s.handleVoiceConfirm)

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("POST /api/catalog/invalidate", s.handleCatalogInvalidate)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/overview", s.handleOverview)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = s.limitWrites(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = log.Middleware(s.logger, trace.RequestIDFromRequest)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// limitWrites applies the per-client limit to POST requests only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.rateLimited)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Demasiadas solicitudes, probá de nuevo en un minuto").Write(w)
}

// Shutdown stops background cleanup and then the HTTP server. Later calls
// are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
