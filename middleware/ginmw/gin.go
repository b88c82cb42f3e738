// Package ginmw provides Gin middleware for the admission layer.
//
// Separated from the middleware package so that importing the HTTP
// middleware does not pull in github.com/gin-gonic/gin.
//
// Usage:
//
//	limiter, _ := admission.New(admission.API, admission.WithRedis(client))
//	guard := &admission.Guard{}
//	r := gin.Default()
//	r.Use(ginmw.RateLimit(limiter), ginmw.CSRF(guard))
package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courtside/admission"
)

// DeniedHandler is called when a request is rejected.
type DeniedHandler func(c *gin.Context)

// Config holds the rate limit middleware configuration.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter *admission.RateLimiter

	// DeniedHandler is called on denial. Default: 429 JSON.
	DeniedHandler DeniedHandler

	// ExcludePaths are request paths that bypass rate limiting.
	ExcludePaths map[string]bool
}

// RateLimit creates Gin middleware with default settings.
func RateLimit(limiter *admission.RateLimiter) gin.HandlerFunc {
	return RateLimitWithConfig(Config{Limiter: limiter})
}

// RateLimitWithConfig creates Gin middleware with full configuration control.
func RateLimitWithConfig(cfg Config) gin.HandlerFunc {
	if cfg.Limiter == nil {
		panic("ginmw: Limiter is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		}
	}

	return func(c *gin.Context) {
		if cfg.ExcludePaths != nil && cfg.ExcludePaths[c.Request.URL.Path] {
			c.Next()
			return
		}
		if !cfg.Limiter.Check(c.Request) {
			cfg.DeniedHandler(c)
			return
		}
		c.Next()
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
func CSRF(guard *admission.Guard) gin.HandlerFunc {
	return CSRFWithConfig(CSRFConfig{Guard: guard})
}

// CSRFWithConfig creates CSRF middleware with full configuration control.
func CSRFWithConfig(cfg CSRFConfig) gin.HandlerFunc {
	if cfg.Guard == nil {
		panic("ginmw: Guard is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid csrf token"})
		}
	}
	if cfg.SkipMethods == nil {
		cfg.SkipMethods = map[string]bool{
			http.MethodGet:     true,
			http.MethodHead:    true,
			http.MethodOptions: true,
		}
	}

	return func(c *gin.Context) {
		if cfg.SkipMethods[c.Request.Method] {
			c.Next()
			return
		}
		if !cfg.Guard.Verify(c.Request) {
			cfg.DeniedHandler(c)
			return
		}
		c.Next()
	}
}
