// Package api implements the PropFlow REST API using chi.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/time/rate"

	"github.com/meletis/propflow/internal/apperr"
	"github.com/meletis/propflow/internal/models"
	"github.com/meletis/propflow/internal/store"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity returns the authenticated user stored in ctx, if any.
func Identity(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(identityKey).(*models.User)
	return u, ok
}

// IdentityMiddleware resolves the caller from the X-User-ID header and
// stores the user in the request context. If enabled is false, all
// requests pass through anonymously (disabled mode). Unknown users get
// 401; deactivated accounts get 403.
func IdentityMiddleware(enabled bool, db *store.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			raw := r.Header.Get("X-User-ID")
			if raw == "" {
				raw = r.Header.Get("User-ID")
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			u, err := db.GetUser(r.Context(), id)
			if errors.Is(err, apperr.ErrNotFound) {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
				return
			}
			if !u.IsActive {
				writeJSON(w, http.StatusForbidden, errorBody("account is deactivated"))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, u)))
		})
	}
}

// RequireRole gates a route group to one role. When identity is
// disabled there is no caller to check, so requests pass through.
func RequireRole(enabled bool, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			u, ok := Identity(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			if u.Role != role {
				writeJSON(w, http.StatusForbidden, errorBody("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu    sync.Mutex
	perIP map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		perIP: make(map[string]*rate.Limiter),
		rps:   rate.Limit(rps),
		burst: burst,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.perIP[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.perIP[ip] = lim
	}
	return lim
}

// RateLimit returns middleware that throttles per client IP. Meant for
// the login endpoint, where unthrottled retries enable password
// guessing.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.get(ip).Allow() {
				writeJSON(w, http.StatusTooManyRequests, errorBody("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
