package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"kinship/internal/models"
	"kinship/internal/security"
	"kinship/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		limiter:     limiter,
	}
}

// RequireAuth is middleware that requires a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing bearer token", "", nil)
			return
		}

		user, err := m.authService.ValidateToken(r.Context(), token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit rejects clients that exceed the per-IP request allowance
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests", "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests with a per-request id
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)

		log.Printf("[%s] %s %s %v", requestID, r.Method, r.URL.Path, time.Since(start))
	})
}

// GetUserFromContext retrieves the authenticated user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}
