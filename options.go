package admission

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options holds resolved limiter configuration. Built by applyOptions;
// read-only afterwards.
type Options struct {
	RedisClient  redis.UniversalClient
	Store        WindowStore
	FailOpen     bool
	StoreTimeout time.Duration
	KeyPrefix    string
	Logger       *zap.Logger
	Now          func() time.Time
}

// Option configures a RateLimiter.
type Option func(*Options)

func applyOptions(opts []Option) *Options {
	o := &Options{
		FailOpen:     true,
		StoreTimeout: time.Second,
		Logger:       zap.NewNop(),
		Now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FormatKey prepends the configured key prefix, if any.
func (o *Options) FormatKey(key string) string {
	if o.KeyPrefix == "" {
		return key
	}
	return o.KeyPrefix + key
}

// WithRedis selects the distributed backend. Accepts any
// redis.UniversalClient (standalone, Cluster, or Sentinel).
func WithRedis(client redis.UniversalClient) Option {
	return func(o *Options) { o.RedisClient = client }
}

// WithStore selects a custom WindowStore backend. Takes precedence over
// WithRedis.
func WithStore(s WindowStore) Option {
	return func(o *Options) { o.Store = s }
}

// WithFailOpen controls what a store error means for that single check:
// admit (true, the default) or reject (false). Local checks never fail,
// so this only matters on the distributed backend.
func WithFailOpen(v bool) Option {
	return func(o *Options) { o.FailOpen = v }
}

// WithStoreTimeout bounds each distributed store call. A call that does
// not return within the timeout is treated as a store error. Default: 1s.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *Options) { o.StoreTimeout = d }
}

// WithKeyPrefix sets a prefix prepended to all storage keys, for sharing
// a Redis with other tenants. Default: none.
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) { o.KeyPrefix = prefix }
}

// WithLogger sets the logger for fail-open warnings. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithNow sets the clock. Tests use this to step time without sleeping.
func WithNow(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}
