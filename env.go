package admission

import (
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Environment variables recognized by FromEnv.
const (
	envRedisAddr     = "REDIS_ADDR"
	envRedisPassword = "REDIS_PASSWORD"
	envRedisDB       = "REDIS_DB"
)

// FromEnv creates a RateLimiter with the backend chosen from the
// environment: when REDIS_ADDR is set and the connection succeeds, the
// distributed store; otherwise the local store, permanently for this
// instance. A configured-but-unreachable Redis is logged once and
// degrades to local rather than failing construction.
func FromEnv(cfg Config, opts ...Option) (*RateLimiter, error) {
	addr := os.Getenv(envRedisAddr)
	if addr == "" {
		return New(cfg, opts...)
	}

	db, _ := strconv.Atoi(os.Getenv(envRedisDB))
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv(envRedisPassword),
		DB:       db,
	})

	store, err := NewRedisStore(client)
	if err != nil {
		applyOptions(opts).Logger.Warn("admission: redis unreachable, using local window store",
			zap.String("addr", addr),
			zap.Error(err))
		_ = client.Close()
		return New(cfg, opts...)
	}
	return New(cfg, append(opts, WithStore(store))...)
}
