// Package http exposes the JSON API: registration and sign-in, the
// admin approval queue, profile settings, the calendar with its staged
// day editor, and computed month totals.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"paga/internal/cache"
	"paga/internal/log"
	"paga/internal/middleware/ratelimit"
	"paga/internal/middleware/security"
	"paga/internal/middleware/trace"
	"paga/internal/services"
	"paga/internal/storage"
)

type Server struct {
	http.Server

	auth     *services.AuthService
	admin    *services.AdminService
	sessions *services.SessionManager
	profiles *services.ProfileService

	exchangeRate float64

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	// Month totals for the profile's own settings; invalidated on
	// every committed change.
	totalsCache  *cache.LRUCache[float64]
	cacheManager *cache.Manager

	logger       *log.Logger
	shutdownOnce sync.Once
}

// Deps carries the collaborators a Server needs.
type Deps struct {
	Auth         *services.AuthService
	Admin        *services.AdminService
	Sessions     *services.SessionManager
	Profiles     *services.ProfileService
	ExchangeRate float64
	Logger       *log.Logger
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		auth:         deps.Auth,
		admin:        deps.Admin,
		sessions:     deps.Sessions,
		profiles:     deps.Profiles,
		exchangeRate: deps.ExchangeRate,
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:       trace.NewMiddleware(extractClientIP),
		totalsCache:  cache.NewLRUCache[float64](500, 5*time.Minute),
		cacheManager: cache.NewManager(),
		logger:       deps.Logger.WithComponent(log.ComponentHTTP),
	}

	s.cacheManager.Register(s.totalsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Registration and sign-in are the only unauthenticated routes,
	// and the only rate-limited ones.
	mux.HandleFunc("POST /api/auth/register", s.withLimit(s.handleRegister))
	mux.HandleFunc("POST /api/auth/verify", s.withLimit(s.handleVerify))
	mux.HandleFunc("POST /api/auth/login", s.withLimit(s.handleLogin))

	mux.HandleFunc("POST /api/auth/logout", s.withUser(s.handleLogout))
	mux.HandleFunc("DELETE /api/auth/account", s.withUser(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/admin/users", s.withAdmin(s.handleListUsers))
	mux.HandleFunc("POST /api/admin/users/{uid}/approve", s.withAdmin(s.handleApprove))
	mux.HandleFunc("POST /api/admin/users/{uid}/reject", s.withAdmin(s.handleReject))

	mux.HandleFunc("GET /api/profile", s.withUser(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.withUser(s.handlePutProfile))

	mux.HandleFunc("GET /api/calendar", s.withUser(s.handleCalendar))

	mux.HandleFunc("POST /api/day/open", s.withUser(s.handleOpenDay))
	mux.HandleFunc("GET /api/day", s.withUser(s.handleGetDay))
	mux.HandleFunc("POST /api/day/entries", s.withUser(s.handleAddEntry))
	mux.HandleFunc("PUT /api/day/entries/{idx}", s.withUser(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/day/entries/{idx}", s.withUser(s.handleRemoveEntry))
	mux.HandleFunc("POST /api/day/save", s.withUser(s.handleSaveDay))
	mux.HandleFunc("POST /api/day/cancel", s.withUser(s.handleCancelDay))

	mux.HandleFunc("GET /api/salary/total", s.withUser(s.handleSalaryTotal))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	withRequestID := log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})
	s.Server.Handler = s.tracer.Middleware(
		log.Middleware(deps.Logger)(withRequestID(headers.Middleware(mux))))

	return s
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// userHandler is a handler that runs with a resolved, approved user.
type userHandler func(w http.ResponseWriter, r *http.Request, u storage.User)

// withUser resolves the bearer token to an approved user before
// calling next.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		u, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r, u)
	}
}

// withAdmin additionally requires the configured admin account.
func (s *Server) withAdmin(next userHandler) http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, u storage.User) {
		if !s.auth.IsAdmin(u) {
			respondError(w, http.StatusForbidden, "admin only")
			return
		}
		next(w, r, u)
	})
}

// withLimit applies per-IP rate limiting.
func (s *Server) withLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.limiter.Allow(clientIP) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// session fetches the caller's hydrated session.
func (s *Server) session(w http.ResponseWriter, r *http.Request, u storage.User) (*services.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), u.UID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Session load failed", "uid", u.UID, "error", err)
		respondError(w, http.StatusInternalServerError, "session unavailable")
		return nil, false
	}
	return sess, true
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.tracer.GetMetrics()
	respondJSON(w, http.StatusOK, map[string]any{
		"total_requests":       m.TotalRequests,
		"avg_response_time_us": m.AverageResponseTime,
		"rate_limit_clients":   s.limiter.ActiveClients(),
		"totals_cache_size":    s.totalsCache.Size(),
	})
}
