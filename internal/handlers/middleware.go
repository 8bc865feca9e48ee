package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wordslayer/internal/logger"
	"wordslayer/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "user_id"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenManager
	limiter *security.RateLimiter
	log     *logger.Logger
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(tokens *security.TokenManager, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		tokens:  tokens,
		limiter: limiter,
		log:     log,
	}
}

// RequireAuth requires a valid bearer token and stores its user id in the context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondWithError(w, m.log, http.StatusUnauthorized, "Unauthorized", "", nil)
			return
		}

		userID, err := m.tokens.Parse(token)
		if err != nil {
			respondWithError(w, m.log, http.StatusUnauthorized, "Unauthorized", "Rejected bearer token", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles an authenticated user. It must run inside RequireAuth.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}
		userID, _ := UserIDFromContext(r.Context())
		if !m.limiter.Allow(fmt.Sprintf("user:%d", userID)) {
			m.log.Warn("Rate limit exceeded", "user_id", userID, "path", r.URL.Path)
			respondWithError(w, m.log, http.StatusTooManyRequests, "Too many requests. Please try again later.", "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request with its status and duration
func Logging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// Recover turns a handler panic into a 500 response
func Recover(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				log.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", p)
				respondWithError(w, log, http.StatusInternalServerError, "Internal server error", "", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext returns the authenticated user id
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(int64)
	return userID, ok
}
