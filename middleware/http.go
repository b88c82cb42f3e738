// Package middleware provides net/http adapters for the admission layer.
//
// Usage:
//
//	limiter, _ := admission.New(admission.API)
//	guard := &admission.Guard{}
//
//	mux := http.NewServeMux()
//	mux.Handle("/api/", middleware.RateLimit(limiter)(middleware.CSRF(guard)(handler)))
//
// A throttled request gets 429, a CSRF failure gets 403, so clients can
// tell "slow down" from "re-authenticate the form".
package middleware

import (
	"fmt"
	"net/http"

	"github.com/courtside/admission"
)

// DeniedHandler is called when a request is rate limited.
// Default behavior: 429 Too Many Requests.
type DeniedHandler func(w http.ResponseWriter, r *http.Request)

// Config holds the rate limit middleware configuration.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter *admission.RateLimiter

	// DeniedHandler is called when a request is denied.
	// Default: responds with 429.
	DeniedHandler DeniedHandler

	// ExcludePaths are request paths that bypass rate limiting.
	ExcludePaths map[string]bool

	// Message is the response body for denied requests.
	// Default: "Too Many Requests".
	Message string

	// StatusCode is the HTTP status code for denied requests.
	// Default: 429.
	StatusCode int
}

// RateLimit creates HTTP middleware with default settings.
//
// Usage with chi:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RateLimit(limiter))
func RateLimit(limiter *admission.RateLimiter) func(http.Handler) http.Handler {
	return RateLimitWithConfig(Config{Limiter: limiter})
}

// RateLimitWithConfig creates HTTP middleware with full configuration control.
func RateLimitWithConfig(cfg Config) func(http.Handler) http.Handler {
	if cfg.Limiter == nil {
		panic("admission/middleware: Limiter is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = denied(cfg.Message, cfg.StatusCode, "Too Many Requests", http.StatusTooManyRequests)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.ExcludePaths != nil && cfg.ExcludePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !cfg.Limiter.Check(r) {
				cfg.DeniedHandler(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFConfig holds the CSRF middleware configuration.
type CSRFConfig struct {
	// Guard verifies the token pair (required).
	Guard *admission.Guard

	// DeniedHandler is called when verification fails.
	// Default: responds with 403.
	DeniedHandler DeniedHandler

	// SkipMethods are request methods that bypass verification.
	// Default: GET, HEAD, OPTIONS (non-mutating methods).
	SkipMethods map[string]bool

	// ExcludePaths are request paths that bypass verification.
	ExcludePaths map[string]bool

	// Message is the response body for rejected requests.
	// Default: "Invalid CSRF Token".
	Message string

	// StatusCode is the HTTP status code for rejected requests.
	// Default: 403.
	StatusCode int
}

// CSRF creates middleware that verifies the double-submit token pair on
// every mutating request (anything but GET, HEAD, OPTIONS).
func CSRF(guard *admission.Guard) func(http.Handler) http.Handler {
	return CSRFWithConfig(CSRFConfig{Guard: guard})
}

// CSRFWithConfig creates CSRF middleware with full configuration control.
func CSRFWithConfig(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.Guard == nil {
		panic("admission/middleware: Guard is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = denied(cfg.Message, cfg.StatusCode, "Invalid CSRF Token", http.StatusForbidden)
	}
	if cfg.SkipMethods == nil {
		cfg.SkipMethods = map[string]bool{
			http.MethodGet:     true,
			http.MethodHead:    true,
			http.MethodOptions: true,
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SkipMethods[r.Method] || (cfg.ExcludePaths != nil && cfg.ExcludePaths[r.URL.Path]) {
				next.ServeHTTP(w, r)
				return
			}
			if !cfg.Guard.Verify(r) {
				cfg.DeniedHandler(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func denied(message string, statusCode int, defaultMessage string, defaultCode int) DeniedHandler {
	if message == "" {
		message = defaultMessage
	}
	if statusCode == 0 {
		statusCode = defaultCode
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(statusCode)
		fmt.Fprintln(w, message)
	}
}
