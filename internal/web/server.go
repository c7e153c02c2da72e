// Package web provides the HTTP API and HTML views of the import service.
package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/colimport/internal/config"
	"github.com/JonMunkholm/colimport/internal/core"
	mw "github.com/JonMunkholm/colimport/internal/web/middleware"
)

// Server is the HTTP server for the import service.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
	limiter  *rateLimiter

	// db is the optional source database of the SQL endpoints.
	db     *sql.DB
	driver string

	settingsMu sync.RWMutex
	defaults   core.Options
}

// Option configures a Server.
type Option func(*Server)

// WithDatabase enables the SQL preview and import endpoints.
func WithDatabase(db *sql.DB, driver string) Option {
	return func(s *Server) {
		s.db = db
		s.driver = driver
	}
}

// NewServer creates a server around service. The default import options
// are read from cfg.Import.SettingsFile when it exists.
func NewServer(service *core.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		validate: newValidator(),
		router:   chi.NewRouter(),
		defaults: core.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Rate.Enabled {
		s.limiter = newRateLimiter(cfg.Rate.ImportsPerMinute, time.Minute)
	}
	s.loadDefaults()
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	proxies, err := mw.ParseTrustedProxies(s.cfg.Security.TrustedProxies)
	if err != nil {
		slog.Warn("ignoring trusted proxies", "error", err)
		proxies = nil
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(proxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout()))
		r.Get("/", s.handleDashboard)
		r.Get("/tables/{id}", s.handleTablePage)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		// Progress streams stay open for the whole import.
		r.Get("/import/{jobID}/progress", s.handleImportProgress)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout()))

			// Tables
			r.Get("/tables", s.handleListTables)
			r.Post("/tables", s.handleCreateTable)
			r.Get("/tables/{id}", s.handleGetTable)
			r.Patch("/tables/{id}", s.handleUpdateTable)
			r.Delete("/tables/{id}", s.handleDeleteTable)
			r.Get("/tables/{id}/data", s.handleTableData)
			r.Get("/tables/{id}/export", s.handleExportTable)
			r.Get("/tables/{id}/history", s.handleTableHistory)
			r.Get("/tables/{id}/audit", s.handleAuditLog)
			r.Post("/tables/{id}/reset", s.handleResetTable)
			r.Post("/tables/{id}/cells", s.handleUpdateCell)
			r.Post("/tables/{id}/rows/delete", s.handleDeleteRows)
			r.Post("/tables/{id}/columns/rename", s.handleRenameColumn)
			r.Post("/tables/{id}/columns/delete", s.handleDeleteColumns)
			r.Post("/reset", s.handleResetAll)

			// Import jobs
			r.Get("/imports", s.handleImportHistory)
			r.Get("/import/{jobID}", s.handleImportStatus)
			r.Post("/import/{jobID}/cancel", s.handleCancelImport)

			// Options, settings and templates
			r.Get("/options", s.handleOptions)
			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handlePutSettings)
			r.Get("/templates", s.handleListTemplates)
			r.Post("/templates", s.handleCreateTemplate)
			r.Get("/templates/match", s.handleMatchTemplates)
			r.Get("/templates/{tplID}", s.handleGetTemplate)
			r.Put("/templates/{tplID}", s.handleUpdateTemplate)
			r.Delete("/templates/{tplID}", s.handleDeleteTemplate)

			// Audit log
			r.Get("/audit", s.handleAuditLog)

			// Rate-limited submissions
			r.Group(func(r chi.Router) {
				if s.limiter != nil {
					r.Use(s.limiter.middleware)
				}
				r.Post("/import/{id}", s.handleImport)
				r.Post("/preview", s.handlePreview)
				if s.db != nil {
					r.Post("/sql/preview", s.handleSQLPreview)
					r.Post("/sql/import/{id}", s.handleSQLImport)
				}
			})
		})
	})
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.Server.RequestTimeout > 0 {
		return s.cfg.Server.RequestTimeout
	}
	return 60 * time.Second
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// defaultOptions returns the options imports start from.
func (s *Server) defaultOptions() core.Options {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.defaults
}

// setDefaults replaces the default options and persists them when a
// settings file is configured.
func (s *Server) setDefaults(opts core.Options) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	if path := s.cfg.Import.SettingsFile; path != "" {
		var buf bytes.Buffer
		if err := core.SaveSettings(&buf, opts); err != nil {
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	s.defaults = opts
	return nil
}

func (s *Server) loadDefaults() {
	path := s.cfg.Import.SettingsFile
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		slog.Warn("open settings file", "path", path, "error", err)
		return
	}
	defer f.Close()

	opts, warnings, err := core.LoadSettings(f)
	if err != nil {
		slog.Warn("load settings file", "path", path, "error", err)
		return
	}
	for _, w := range warnings {
		slog.Warn("settings attribute", "path", path, "warning", w.String())
	}
	s.defaults = opts
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter is a fixed-window limiter per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries until stop is called.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists || time.Since(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware rate limits by the client IP set by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(mw.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "Too many imports from this client",
				Action:  "Please wait a minute and try again",
				Code:    "RATE001",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
