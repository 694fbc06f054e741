// Package http serves the expense desk over HTTP.
//
// A Server drives a single process-wide workflow, so there is one draft for
// every client: all browsers see the same in-progress expense, and a second
// user who starts or submits while another is mid-flow gets 409 Conflict
// until that draft is committed or cancelled.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"expensedesk/internal/cache"
	"expensedesk/internal/core"
	applog "expensedesk/internal/log"
	"expensedesk/internal/middleware/ratelimit"
	"expensedesk/internal/middleware/security"
	"expensedesk/internal/middleware/trace"
	"expensedesk/internal/workflow"
	appweb "expensedesk/web"
)

// Pinger is implemented by stores that can report their own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Logger            *applog.Logger
	Pinger            Pinger
	SummaryCacheSize  int
	SummaryCacheTTL   time.Duration
	RequestsPerMinute int
	CleanupInterval   time.Duration

	// TemplateFS and StaticFS override the embedded web assets.
	TemplateFS fs.FS
	StaticFS   fs.FS
}

type Server struct {
	http.Server
	templates *template.Template
	workflow  *workflow.Workflow
	pinger    Pinger
	logger    *applog.Logger

	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	totalExpenses atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, wf *workflow.Workflow, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.SummaryCacheSize <= 0 {
		opts.SummaryCacheSize = 64
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = 5 * time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 10 * time.Minute
	}
	if opts.TemplateFS == nil {
		opts.TemplateFS = appweb.TemplatesFS
	}
	if opts.StaticFS == nil {
		if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
			opts.StaticFS = sub
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		workflow:         wf,
		pinger:           opts.Pinger,
		logger:           opts.Logger.WithComponent(applog.ComponentHTTP),
		summaryCache:     cache.NewLRUCache[core.Summary](opts.SummaryCacheSize, opts.SummaryCacheTTL),
		cacheManager:     cache.NewManager(),
		rateLimiter:      ratelimit.NewLimiter(opts.RequestsPerMinute),
		securityDetector: security.NewDetector(),
	}
	s.metrics.uptime = time.Now()
	s.traceMiddleware = trace.NewMiddleware(opts.Logger, s.securityDetector.ExtractClientIP)

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(opts.CleanupInterval)

	t, err := template.ParseFS(opts.TemplateFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	} else {
		s.templates = t
	}

	if opts.StaticFS != nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(opts.StaticFS)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Static assets not mounted")
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /expenses/start", s.handleStart)
	mux.HandleFunc("POST /expenses/details", s.handleDetails)
	mux.HandleFunc("POST /expenses/payment", s.handlePayment)
	mux.HandleFunc("POST /expenses/cancel", s.handleCancel)
	mux.HandleFunc("GET /expenses", s.handleListExpenses)

	mux.HandleFunc("GET /ui/form", s.handleForm)
	mux.HandleFunc("GET /ui/subtypes", s.handleSubtypes)
	mux.HandleFunc("GET /ui/balance", s.handleBalance)
	mux.HandleFunc("GET /ui/summary", s.handleSummary)

	mux.HandleFunc("GET /api/taxonomy", s.handleTaxonomy)
	mux.HandleFunc("GET /api/expenses", s.handleAPIExpenses)

	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited, http.MethodPost)

	var h http.Handler = mux
	h = limit(h)
	h = s.detectSuspicious(h)
	h = security.Headers(h)
	h = s.traceMiddleware.Middleware(h)
	s.Handler = h

	return s
}

// detectSuspicious logs probing requests without blocking them.
func (s *Server) detectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent(),
				applog.FieldClientIP, s.securityDetector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.", 60).
		TriggerErrorNotification("Too many requests, slow down.").
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
