package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"
	appweb "conti/web"
)

// Ledger is the slice of the application service the handlers need.
type Ledger interface {
	Create(ctx context.Context, e core.Entry) (int64, error)
	Delete(ctx context.Context, id int64) error
	SetSettled(ctx context.Context, id int64, settled bool) error
	Snapshot(ctx context.Context, kind core.EntryKind) (ledger.Snapshot, error)
}

type Server struct {
	http.Server
	templates   *template.Template
	svc         Ledger
	group       core.Group
	rateLimiter *rateLimiter

	// Snapshot cache keyed by kind filter. Every mutation drops all
	// keys; a snapshot is only ever as stale as the TTL.
	snapshots    *cache.LRU[ledger.Snapshot]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc Ledger, group core.Group) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:          svc,
		group:        group,
		rateLimiter:  newRateLimiter(),
		snapshots:    cache.NewLRU[ledger.Snapshot](16, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.snapshots)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("POST /entries", s.withSecurityHeaders(s.handleCreateEntry))
	mux.HandleFunc("POST /entries/{id}/settled", s.withSecurityHeaders(s.handleSetSettled))
	mux.HandleFunc("DELETE /entries/{id}", s.withSecurityHeaders(s.handleDeleteEntry))
	// UI partials
	mux.HandleFunc("GET /ui/ledger", s.withSecurityHeaders(s.handleLedger))
	mux.HandleFunc("GET /ui/balances", s.withSecurityHeaders(s.handleBalances))

	return s
}

// Shutdown stops the background cleanup goroutines and then the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// getSnapshot serves the cached ledger snapshot for a kind filter,
// recomputing on miss.
func (s *Server) getSnapshot(ctx context.Context, kind core.EntryKind) (ledger.Snapshot, error) {
	key := string(kind)
	if snap, found := s.snapshots.Get(key); found {
		slog.DebugContext(ctx, "Snapshot cache hit", log.Kind(key))
		return snap, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	snap, err := s.svc.Snapshot(cctx, kind)
	if err != nil {
		return ledger.Snapshot{}, err
	}

	s.snapshots.Set(key, snap)
	slog.DebugContext(ctx, "Snapshot cached", log.Kind(key), "entries", len(snap.Entries))
	return snap, nil
}

// invalidateSnapshots drops every cached snapshot after a mutation.
func (s *Server) invalidateSnapshots() {
	s.snapshots.Delete("")
	for _, kind := range []core.EntryKind{core.LegalExpense, core.OtherExpense, core.RentIncome} {
		s.snapshots.Delete(string(kind))
	}
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.RequestID(requestID),
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutations only; reads are cheap and cached.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			log.RequestID(requestID),
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
