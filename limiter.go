package admission

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config is one quota: at most Max admitted requests per Window.
// Supplied per protected route; the limiter is generic over any value.
type Config struct {
	Max    int64
	Window time.Duration
}

// Preset tiers. Convenience values only; any positive Config works.
var (
	// Strict is for abuse-prone endpoints.
	Strict = Config{Max: 10, Window: time.Minute}
	// Normal is the general-purpose tier.
	Normal = Config{Max: 60, Window: time.Minute}
	// Relaxed is for cheap read-only endpoints.
	Relaxed = Config{Max: 300, Window: time.Minute}
	// Auth is for login and token-exchange endpoints.
	Auth = Config{Max: 5, Window: 15 * time.Minute}
	// API is the default tier for authenticated API traffic.
	API = Config{Max: 100, Window: time.Minute}
)

// RateLimiter decides admit/reject for one request against one quota.
// Construct one per configured tier and share it across requests; all
// methods are safe for concurrent use.
type RateLimiter struct {
	cfg   Config
	store WindowStore
	opts  *Options
	local *LocalStore // set only when the local backend was selected
}

// New creates a RateLimiter. The backend is fixed for the limiter's
// lifetime: WithStore, else WithRedis, else a process-local store.
func New(cfg Config, opts ...Option) (*RateLimiter, error) {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("admission: max and window must be positive, got max=%d window=%s", cfg.Max, cfg.Window)
	}
	o := applyOptions(opts)

	l := &RateLimiter{cfg: cfg, opts: o}
	switch {
	case o.Store != nil:
		l.store = o.Store
	case o.RedisClient != nil:
		st, err := NewRedisStore(o.RedisClient)
		if err != nil {
			return nil, err
		}
		l.store = st
	default:
		l.local = NewLocalStore()
		l.store = l.local
	}
	return l, nil
}

// Check reports whether r may proceed, consuming one slot of the quota
// for its (route, client) key on admission. A store error is resolved by
// the fail-open policy and logged, never surfaced; rejection is the
// expected signal for "answer with a throttling response".
func (l *RateLimiter) Check(r *http.Request) bool {
	return l.CheckKey(r.Context(), Key(r.URL.Path, ClientID(r)))
}

// CheckKey is Check for callers that derive their own key (gRPC, Fiber).
func (l *RateLimiter) CheckKey(ctx context.Context, key string) bool {
	allowed, err := l.Allow(ctx, key)
	if err != nil {
		l.opts.Logger.Warn("admission: window store unavailable",
			zap.String("key", key),
			zap.Bool("fail_open", l.opts.FailOpen),
			zap.Error(err))
		return l.opts.FailOpen
	}
	return allowed
}

// Allow runs one admission cycle and returns the raw store outcome.
// Most callers want Check or CheckKey, which also apply the fail-open
// policy. The store call is bounded by the configured store timeout.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.StoreTimeout)
	defer cancel()
	return l.store.Take(ctx, l.opts.FormatKey(key), l.opts.Now(), l.cfg.Max, l.cfg.Window)
}

// Config returns the quota this limiter enforces.
func (l *RateLimiter) Config() Config {
	return l.cfg
}

// Close stops the local store's sweep goroutine. A no-op on the
// distributed backend.
func (l *RateLimiter) Close() {
	if l.local != nil {
		l.local.Close()
	}
}
