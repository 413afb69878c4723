package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gradewatch/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const InstructorContextKey ContextKey = "instructor"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier *security.TokenVerifier
	limiter  *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. A nil verifier disables
// authentication and a nil limiter disables rate limiting.
func NewMiddleware(verifier *security.TokenVerifier, limiter *security.RateLimiter) *Middleware {
	return &Middleware{verifier: verifier, limiter: limiter}
}

// RequireInstructor is middleware that requires a valid instructor bearer token
func (m *Middleware) RequireInstructor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.verifier == nil {
			next(w, r)
			return
		}

		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims, err := m.verifier.Verify(strings.TrimSpace(token))
		if errors.Is(err, security.ErrForbiddenRole) {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gradewatch"`)
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), InstructorContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin rejects instructors without the admin role. It must run
// inside RequireInstructor; with authentication disabled every caller passes.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.verifier == nil {
			next(w, r)
			return
		}
		claims := InstructorFromContext(r.Context())
		if claims == nil || claims.Role != security.RoleAdmin {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit is middleware that limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}

		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			retry := int(math.Ceil(m.limiter.RetryAfter(ip).Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// InstructorFromContext retrieves the verified token claims, nil when authentication is disabled
func InstructorFromContext(ctx context.Context) *security.InstructorClaims {
	claims, ok := ctx.Value(InstructorContextKey).(*security.InstructorClaims)
	if !ok {
		return nil
	}
	return claims
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
