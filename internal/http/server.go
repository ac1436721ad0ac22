// Package http exposes the movement ledger as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"hogar/internal/core"
	"hogar/internal/ledger"
	applog "hogar/internal/log"
	"hogar/internal/middleware/ratelimit"
	"hogar/internal/middleware/security"
	"hogar/internal/middleware/trace"
)

type Server struct {
	http.Server

	ledger  ledger.Ledger
	members *core.MemberDirectory

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, l ledger.Ledger, members *core.MemberDirectory) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:      l,
		members:     members,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/members", s.withAuth(s.handleListMembers))
	mux.HandleFunc("GET /api/catalog", s.withAuth(s.handleCatalog))

	mux.HandleFunc("POST /api/movements", s.withAuth(s.handleCreateMovement))
	mux.HandleFunc("GET /api/movements", s.withAuth(s.handleListMovements))
	mux.HandleFunc("PATCH /api/movements/{id}", s.withAuth(s.handleUpdateMovement))
	mux.HandleFunc("POST /api/movements/{id}/confirm", s.withAuth(s.handleConfirmMovement))
	mux.HandleFunc("DELETE /api/movements/{id}", s.withAuth(s.handleDeleteMovement))

	mux.HandleFunc("GET /api/summary", s.withAuth(s.handleSummary))
	mux.HandleFunc("GET /api/summary/monthly", s.withAuth(s.handleMonthlySummary))
	mux.HandleFunc("GET /api/summary/personal", s.withAuth(s.handlePersonalSummary))

	traceMW := trace.NewMiddleware(extractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.rateLimiter.Middleware(extractClientIP, nil)

	var handler http.Handler = mux
	handler = limitMutating(limitMW, handler)
	handler = headersMW.Middleware(handler)
	handler = traceMW.Middleware(handler)
	handler = applog.Middleware(applog.FromContext(context.Background()))(handler)
	s.Handler = handler

	return s
}

// limitMutating applies the rate limiter only to state-changing methods.
func limitMutating(limit func(http.Handler) http.Handler, next http.Handler) http.Handler {
	limited := limit(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodPut:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// withAuth resolves the calling household member from the X-Member-ID
// header. Requests without a configured member id get a 401.
func (s *Server) withAuth(next func(http.ResponseWriter, *http.Request, core.Member)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := r.Header.Get("X-Member-ID")
		member, ok := s.members.Lookup(memberID)
		if !ok {
			slog.WarnContext(r.Context(), "Rejected request from unknown member",
				"member_id", memberID,
				"path", r.URL.Path)
			respondError(w, http.StatusUnauthorized, "unknown member id")
			return
		}
		next(w, r, member)
	}
}

func extractClientIP(r *http.Request) string {
	clientIP := r.Header.Get("X-Forwarded-For")
	if clientIP == "" {
		clientIP = r.Header.Get("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = r.RemoteAddr
	}
	return clientIP
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.Summary(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the rate limiter cleanup and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
