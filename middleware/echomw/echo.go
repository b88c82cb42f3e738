// Package echomw provides Echo middleware for the admission layer.
//
// Separated from the middleware package so that importing the HTTP
// middleware does not pull in github.com/labstack/echo.
//
// Usage:
//
//	limiter, _ := admission.New(admission.API, admission.WithRedis(client))
//	guard := &admission.Guard{}
//	e := echo.New()
//	e.Use(echomw.RateLimit(limiter), echomw.CSRF(guard))
package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/courtside/admission"
)

// DeniedHandler is called when a request is rejected.
type DeniedHandler func(c echo.Context) error

// Config holds the rate limit middleware configuration.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter *admission.RateLimiter

	// DeniedHandler is called on denial. Default: 429 JSON.
	DeniedHandler DeniedHandler

	// ExcludePaths are request paths that bypass rate limiting.
	ExcludePaths map[string]bool
}

// RateLimit creates Echo middleware with default settings.
func RateLimit(limiter *admission.RateLimiter) echo.MiddlewareFunc {
	return RateLimitWithConfig(Config{Limiter: limiter})
}

// RateLimitWithConfig creates Echo middleware with full configuration control.
func RateLimitWithConfig(cfg Config) echo.MiddlewareFunc {
	if cfg.Limiter == nil {
		panic("echomw: Limiter is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = func(c echo.Context) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.ExcludePaths != nil && cfg.ExcludePaths[c.Request().URL.Path] {
				return next(c)
			}
			if !cfg.Limiter.Check(c.Request()) {
				return cfg.DeniedHandler(c)
			}
			return next(c)
		}
	}
}

// CSRFConfig holds the CSRF middleware configuration.
type CSRFConfig struct {
	// Guard verifies the token pair (required).
	Guard *admission.Guard

	// DeniedHandler is called on verification failure. Default: 403 JSON.
	DeniedHandler DeniedHandler

	// SkipMethods are request methods that bypass verification.
	// Default: GET, HEAD, OPTIONS.
	SkipMethods map[string]bool
}

// CSRF creates middleware verifying the double-submit token pair on
// mutating requests.
func CSRF(guard *admission.Guard) echo.MiddlewareFunc {
	return CSRFWithConfig(CSRFConfig{Guard: guard})
}

// CSRFWithConfig creates CSRF middleware with full configuration control.
func CSRFWithConfig(cfg CSRFConfig) echo.MiddlewareFunc {
	if cfg.Guard == nil {
		panic("echomw: Guard is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = func(c echo.Context) error {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "invalid csrf token"})
		}
	}
	if cfg.SkipMethods == nil {
		cfg.SkipMethods = map[string]bool{
			http.MethodGet:     true,
			http.MethodHead:    true,
			http.MethodOptions: true,
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.SkipMethods[c.Request().Method] {
				return next(c)
			}
			if !cfg.Guard.Verify(c.Request()) {
				return cfg.DeniedHandler(c)
			}
			return next(c)
		}
	}
}
