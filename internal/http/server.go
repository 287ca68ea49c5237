package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetbolt/internal/auth"
	"budgetbolt/internal/core"
	"budgetbolt/internal/log"
	"budgetbolt/internal/metrics"
	"budgetbolt/internal/middleware/ratelimit"
	"budgetbolt/internal/middleware/security"
	"budgetbolt/internal/middleware/trace"
	"budgetbolt/internal/reports"
	"budgetbolt/internal/services"

	"github.com/rs/cors"
)

// Config holds the listener and edge settings of the API server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	RateLimit      int // requests per minute per client
}

// Deps are the collaborators the handlers call into. Metrics is optional.
type Deps struct {
	Ledger  *services.LedgerService
	Reports *reports.Builder
	Tokens  *auth.JWTManager
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

type Server struct {
	http.Server
	ledger  *services.LedgerService
	reports *reports.Builder
	tokens  *auth.JWTManager
	metrics *metrics.Metrics
	logger  *log.Logger

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and the middleware chain, returning a
// ready-to-run server. Call Shutdown to stop it and its background work.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		ledger:    deps.Ledger,
		reports:   deps.Reports,
		tokens:    deps.Tokens,
		metrics:   deps.Metrics,
		logger:    logger.WithComponent(log.ComponentHTTP),
		detector:  security.NewDetector(),
		startedAt: time.Now(),
	}
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimit})
	s.tracer = trace.NewMiddleware(logger.WithComponent(log.ComponentHTTP), s.detector.ExtractClientIP)
	if s.metrics != nil {
		s.metrics.RegisterRateLimiter(s.rateLimiter.GetMetrics)
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.buildHandler(cfg, s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.requireOwner(h))
	}

	// Reports
	api("GET /api/reports/dashboard", s.handleDashboard)
	api("GET /api/reports/monthly/{year}/{month}", s.handleMonthlyReport)
	api("POST /api/reports/monthly/{year}/{month}/export", s.handleRequestExport)
	api("GET /api/reports/expense-breakdown", s.handleExpenseBreakdown)
	api("GET /api/reports/income-trends", s.handleIncomeTrends)

	// Projects
	api("GET /api/projects", s.handleListProjects)
	api("POST /api/projects", s.handleCreateProject)
	api("GET /api/projects/profitability", s.handleProjectsProfitability)
	api("GET /api/projects/{id}", s.handleGetProject)
	api("PUT /api/projects/{id}", s.handleUpdateProject)
	api("PATCH /api/projects/{id}", s.handleUpdateProject)
	api("DELETE /api/projects/{id}", s.handleDeleteProject)
	api("GET /api/projects/{id}/profitability", s.handleProjectProfitability)

	api("GET /api/categories", s.handleListCategories)

	// Transactions
	api("GET /api/incomes", s.handleListTransactions(core.KindIncome))
	api("POST /api/incomes", s.handleCreateTransaction(core.KindIncome))
	api("GET /api/incomes/{id}", s.handleGetTransaction(core.KindIncome))
	api("PUT /api/incomes/{id}", s.handleUpdateTransaction(core.KindIncome))
	api("DELETE /api/incomes/{id}", s.handleDeleteTransaction(core.KindIncome))
	api("GET /api/expenses", s.handleListTransactions(core.KindExpense))
	api("POST /api/expenses", s.handleCreateTransaction(core.KindExpense))
	api("GET /api/expenses/{id}", s.handleGetTransaction(core.KindExpense))
	api("PUT /api/expenses/{id}", s.handleUpdateTransaction(core.KindExpense))
	api("DELETE /api/expenses/{id}", s.handleDeleteTransaction(core.KindExpense))

	return mux
}

// buildHandler wraps mux, outermost first: security headers, CORS, tracing,
// scanner detection, rate limiting, metrics. Authentication is per route.
func (s *Server) buildHandler(cfg Config, mux *http.ServeMux) http.Handler {
	var h http.Handler = mux
	if s.metrics != nil {
		h = s.instrument(h)
	}
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	h = cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return h
}

// requireOwner authenticates the bearer token and stores the owner in the
// request context.
func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			UnauthorizedError(err.Error()).Write(w)
			return
		}
		claims, err := s.tokens.Validate(token)
		if err != nil {
			s.logger.WarnContext(r.Context(), "Token rejected",
				log.FieldPath, r.URL.Path,
				log.FieldError, err.Error())
			UnauthorizedError(auth.ErrInvalidToken.Error()).Write(w)
			return
		}

		ownerID := claims.OwnerID()
		ctx := auth.WithOwner(r.Context(), ownerID)
		ctx = log.WithContext(ctx, log.FromContext(ctx).With(log.FieldOwnerID, ownerID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument records one metrics sample per request, labelled with the
// matched route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		// ServeMux sets Pattern on the request it was handed.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(r.Method, route, rw.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// ownerFrom returns the authenticated owner. Routes are wrapped by
// requireOwner, so a missing owner is a wiring error.
func ownerFrom(r *http.Request) (string, error) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		return "", core.ErrMissingOwner
	}
	return ownerID, nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
