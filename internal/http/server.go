// Package http exposes the state store as a JSON API with CSV downloads.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"gestaosocial/internal/cache"
	"gestaosocial/internal/core"
	applog "gestaosocial/internal/log"
	"gestaosocial/internal/middleware/ratelimit"
	"gestaosocial/internal/middleware/security"
	"gestaosocial/internal/middleware/trace"
	"gestaosocial/internal/state"
)

const (
	maxBodyBytes    = 1 << 20
	cacheTTL        = 5 * time.Minute
	cacheMaxEntries = 64
	readyTimeout    = 5 * time.Second
)

type Server struct {
	http.Server
	store *state.Store
	ping  func(context.Context) error
	log   *slog.Logger
	now   func() time.Time

	cacheManager *cache.Manager
	dashCache    *cache.LRUCache[core.DashboardStats]
	reportCache  *cache.LRUCache[core.Report]
	csvCache     *cache.LRUCache[[]byte]

	rateLimiter     *ratelimit.Limiter
	clientIPs       *security.ClientIPResolver
	traceMiddleware *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

type Options struct {
	Addr   string
	Store  *state.Store
	Ping   func(context.Context) error
	Logger *slog.Logger
	// AuthRequestsPerMinute bounds sign-in and sign-up attempts per client.
	AuthRequestsPerMinute int
}

// NewServer wires routes and middleware; the caller runs ListenAndServe and
// later Shutdown.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ping := opts.Ping
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}

	s := &Server{
		store:        opts.Store,
		ping:         ping,
		log:          logger,
		now:          time.Now,
		cacheManager: cache.NewManager(logger.With(applog.FieldComponent, applog.ComponentCache)),
		dashCache:    cache.NewLRUCache[core.DashboardStats](cacheMaxEntries, cacheTTL),
		reportCache:  cache.NewLRUCache[core.Report](cacheMaxEntries, cacheTTL),
		csvCache:     cache.NewLRUCache[[]byte](cacheMaxEntries, cacheTTL),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.AuthRequestsPerMinute,
		}),
		clientIPs: security.NewClientIPResolver(),
		started:   time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.clientIPs.ClientIP)

	s.cacheManager.Register(s.dashCache)
	s.cacheManager.Register(s.reportCache)
	s.cacheManager.Register(s.csvCache)
	s.cacheManager.StartCleanup(cacheTTL)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	limited := s.rateLimiter.Middleware(s.clientIPs.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusTooManyRequests, "Muitas tentativas. Tente novamente em instantes.")
	})

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /auth/login", limited(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /auth/signup", limited(http.HandlerFunc(s.handleSignUp)))
	mux.HandleFunc("POST /auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /auth/status", s.handleAuthStatus)

	mux.HandleFunc("GET /api/dashboard", s.requireAuth(s.handleDashboard))

	mux.HandleFunc("GET /api/families", s.requireAuth(s.handleListFamilies))
	mux.HandleFunc("POST /api/families", s.requireAuth(s.handleCreateFamily))
	mux.HandleFunc("GET /api/families/{id}", s.requireAuth(s.handleGetFamily))
	mux.HandleFunc("PUT /api/families/{id}", s.requireAuth(s.handleUpdateFamily))
	mux.HandleFunc("DELETE /api/families/{id}", s.requireAuth(s.handleDeleteFamily))
	mux.HandleFunc("POST /api/families/{id}/history", s.requireAuth(s.handleAddHistory))

	mux.HandleFunc("GET /api/transactions", s.requireAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.requireAuth(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireAuth(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/financial", s.requireAuth(s.handleFinancial))

	mux.HandleFunc("GET /api/reports", s.requireAuth(s.handleReport))
	mux.HandleFunc("GET /export/families.csv", s.requireAuth(s.handleExportFamilies))
	mux.HandleFunc("GET /export/report.csv", s.requireAuth(s.handleExportReport))
	mux.HandleFunc("GET /export/backup.json", s.requireAuth(s.handleExportBackup))

	mux.HandleFunc("GET /api/settings", s.requireAuth(s.handleSettings))
	mux.HandleFunc("POST /api/settings/theme", s.requireAuth(s.handleToggleTheme))
}

// requireAuth answers 401 unless the store holds a signed-in operator and
// the request carries that operator's access token.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.requestSession(r); !ok {
			writeError(w, r, state.ErrNotAuthenticated)
			return
		}
		next(w, r)
	}
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
