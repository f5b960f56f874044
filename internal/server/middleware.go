package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openleague/openleague-go/internal/api"
	"github.com/openleague/openleague-go/internal/identity"
	"github.com/openleague/openleague-go/internal/ratelimit"
)

// RequestLogMiddleware logs request information using slog.
func RequestLogMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info("request",
					"request_id", chimw.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthGateConfig configures the session auth gate middleware.
type AuthGateConfig struct {
	// RequireAuth returns true if the given path requires session
	// authentication. Constructed at router setup time from the route
	// group table.
	RequireAuth func(path string) bool

	// Provider resolves session tokens to sessions and users.
	Provider *identity.Provider

	// Log is the base logger for auth-related warnings.
	Log *slog.Logger
}

// NewAuthGate returns a middleware that enforces session authentication.
// Paths for which RequireAuth returns false pass through untouched.
func NewAuthGate(cfg AuthGateConfig) func(http.Handler) http.Handler {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAuth(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := api.ReadSessionToken(r)
			if err != nil {
				if errors.Is(err, api.ErrMissingHeaders) {
					cfg.Log.Error("request without header map", "path", r.URL.Path)
					api.WriteInternalError(w, "request headers unavailable")
					return
				}
				api.WriteInternalError(w, "failed to read session token")
				return
			}
			if token == "" {
				api.WriteUnauthorized(w, api.ReasonUnauthenticated, "authentication required")
				return
			}

			session, user, err := cfg.Provider.GetSession(r.Context(), token)
			if err != nil {
				cfg.Log.Warn("session lookup failed", "error", err)
				api.WriteInternalError(w, "session lookup failed")
				return
			}
			if session == nil {
				api.WriteUnauthorized(w, api.ReasonSessionExpired, "session not found or expired")
				return
			}

			ctx := api.WithSession(r.Context(), session)
			ctx = api.WithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRateLimitGate returns a middleware that rate-limits requests by
// client address using the given limiter. A nil limiter disables the
// gate.
func NewRateLimitGate(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := limiter.Allow(r.Context(), clientKey(r))
			if err != nil {
				// Cache errors fail open.
				log.Warn("rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !result.Allowed {
				api.WriteTooManyRequests(w, "too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		addr = addr[:i]
	}
	return addr
}
