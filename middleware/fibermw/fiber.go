// Package fibermw provides Fiber middleware for the admission layer.
//
// Separated from the middleware package so that importing the HTTP
// middleware does not pull in github.com/gofiber/fiber. Fiber uses
// fasthttp (not net/http), so a dedicated adapter is required; key
// derivation and token verification go through the value-based entry
// points (CheckKey, VerifyTokens).
//
// Usage:
//
//	limiter, _ := admission.New(admission.API, admission.WithRedis(client))
//	guard := &admission.Guard{}
//	app := fiber.New()
//	app.Use(fibermw.RateLimit(limiter), fibermw.CSRF(guard))
package fibermw

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/courtside/admission"
)

// DeniedHandler is called when a request is rejected.
type DeniedHandler func(c *fiber.Ctx) error

// Config holds the rate limit middleware configuration.
type Config struct {
	// Limiter is the rate limiter instance (required).
	Limiter *admission.RateLimiter

	// DeniedHandler is called on denial. Default: 429 JSON.
	DeniedHandler DeniedHandler

	// ExcludePaths are request paths that bypass rate limiting.
	ExcludePaths map[string]bool
}

// RateLimit creates Fiber middleware with default settings.
func RateLimit(limiter *admission.RateLimiter) fiber.Handler {
	return RateLimitWithConfig(Config{Limiter: limiter})
}

// RateLimitWithConfig creates Fiber middleware with full configuration control.
func RateLimitWithConfig(cfg Config) fiber.Handler {
	if cfg.Limiter == nil {
		panic("fibermw: Limiter is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
	}

	return func(c *fiber.Ctx) error {
		if cfg.ExcludePaths != nil && cfg.ExcludePaths[c.Path()] {
			return c.Next()
		}
		client := admission.ClientIDFromForwarded(c.Get(fiber.HeaderXForwardedFor))
		if !cfg.Limiter.CheckKey(c.UserContext(), admission.Key(c.Path(), client)) {
			return cfg.DeniedHandler(c)
		}
		return c.Next()
	}
}

// CSRFConfig holds the CSRF middleware configuration.
type CSRFConfig struct {
	// Guard supplies the header and cookie names (required).
	Guard *admission.Guard

	// DeniedHandler is called on verification failure. Default: 403 JSON.
	DeniedHandler DeniedHandler

	// SkipMethods are request methods that bypass verification.
	// Default: GET, HEAD, OPTIONS.
	SkipMethods map[string]bool
}

// CSRF creates middleware verifying the double-submit token pair on
// mutating requests.
func CSRF(guard *admission.Guard) fiber.Handler {
	return CSRFWithConfig(CSRFConfig{Guard: guard})
}

// CSRFWithConfig creates CSRF middleware with full configuration control.
func CSRFWithConfig(cfg CSRFConfig) fiber.Handler {
	if cfg.Guard == nil {
		panic("fibermw: Guard is required")
	}
	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid csrf token"})
		}
	}
	if cfg.SkipMethods == nil {
		cfg.SkipMethods = map[string]bool{
			http.MethodGet:     true,
			http.MethodHead:    true,
			http.MethodOptions: true,
		}
	}

	header := cfg.Guard.Header
	if header == "" {
		header = admission.DefaultCSRFHeader
	}
	cookie := cfg.Guard.Cookie
	if cookie == "" {
		cookie = admission.DefaultCSRFCookie
	}

	return func(c *fiber.Ctx) error {
		if cfg.SkipMethods[c.Method()] {
			return c.Next()
		}
		if !admission.VerifyTokens(c.Get(header), c.Cookies(cookie)) {
			return cfg.DeniedHandler(c)
		}
		return c.Next()
	}
}
