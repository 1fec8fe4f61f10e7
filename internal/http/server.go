package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	applog "ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
)

// Options configures NewServer.
type Options struct {
	Addr            string
	Service         TransactionService
	Subscriptions   SubscriptionService
	Settings        SettingsService
	Verifier        *InitDataVerifier
	RateLimitPerMin int
	Logger          *applog.Logger
	// Ready reports whether dependencies are reachable; nil means always.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	service       TransactionService
	subscriptions SubscriptionService
	settings      SettingsService
	verifier      *InitDataVerifier
	limiter       *ratelimit.Limiter
	tracer        *trace.Middleware
	ready         func(ctx context.Context) error

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
//
//	GET  /healthz, /readyz
//	POST /api/index    create from free text (rate limited)
//	POST /api/delete   delete by id (rate limited)
//	GET  /api/stats    dashboard summary
//	GET  /api/export   CSV report
//	POST /api/subs     list, add or delete subscriptions (rate limited)
//	POST /api/settings change the display currency (rate limited)
//	GET  /api/quick-buttons, POST to replace them (rate limited)
//
// The subscription and settings routes exist only when their services
// are configured.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		service:       opts.Service,
		subscriptions: opts.Subscriptions,
		settings:      opts.Settings,
		verifier:      opts.Verifier,
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMin}),
		tracer:        trace.NewMiddleware(extractClientIP, logger.WithComponent(applog.ComponentHTTP)),
		ready:         opts.Ready,
	}

	limitByUser := s.limiter.Middleware(func(r *http.Request) string {
		if id, ok := UserIDFromContext(r.Context()); ok {
			return strconv.FormatInt(id, 10)
		}
		return extractClientIP(r)
	}, func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		applog.FromContext(ctx).WithComponent(applog.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded")
		TooManyRequests().Write(w)
	})

	api := func(h http.HandlerFunc) http.Handler {
		return s.verifier.RequireUser(h)
	}
	write := func(h http.HandlerFunc) http.Handler {
		return s.verifier.RequireUser(limitByUser(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/api/index", write(s.handleCreate))
	mux.Handle("/api/delete", write(s.handleDelete))
	mux.Handle("/api/stats", api(s.handleStats))
	mux.Handle("/api/export", api(s.handleExport))
	if s.subscriptions != nil {
		mux.Handle("/api/subs", write(s.handleSubscriptions))
	}
	if s.settings != nil {
		mux.Handle("/api/settings", write(s.handleSettings))
		mux.Handle("/api/quick-buttons", byMethod(map[string]http.Handler{
			http.MethodGet:  api(s.handleGetQuickButtons),
			http.MethodPost: write(s.handleSaveQuickButtons),
		}))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFound("Not found").Write(w)
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns request counters from the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
