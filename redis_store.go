package admission

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed window_take.lua
var windowTakeScript string

// RedisStore is the distributed WindowStore: a sliding window log kept in
// a sorted set per key. The purge/count/add cycle runs as one Lua script,
// which makes it atomic per key across all processes sharing the Redis.
// Keys expire after one window, so abandoned buckets are reclaimed by
// Redis itself.
//
// Errors are returned raw; the fail-open policy lives in the limiter.
type RedisStore struct {
	client    redis.UniversalClient
	scriptSHA string
}

// NewRedisStore pings the client and preloads the admission script.
// An unreachable Redis fails here, at construction, not per-request.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("admission: redis ping failed: %w", err)
	}
	sha, err := client.ScriptLoad(ctx, windowTakeScript).Result()
	if err != nil {
		return nil, fmt.Errorf("admission: loading admission script: %w", err)
	}
	return &RedisStore{client: client, scriptSHA: sha}, nil
}

func (s *RedisStore) Take(ctx context.Context, key string, now time.Time, max int64, window time.Duration) (bool, error) {
	// Timestamp alone is not unique under concurrency; suffix a uuid.
	member := fmt.Sprintf("%d:%s", now.UnixMilli(), uuid.NewString())
	args := []interface{}{now.UnixMilli(), window.Milliseconds(), max, member}

	res, err := s.client.EvalSha(ctx, s.scriptSHA, []string{key}, args...).Result()
	if err != nil && redis.HasErrorPrefix(err, "NOSCRIPT") {
		// Script cache was flushed (e.g. Redis restart); re-send by body.
		res, err = s.client.Eval(ctx, windowTakeScript, []string{key}, args...).Result()
	}
	if err != nil {
		return false, fmt.Errorf("admission: redis take: %w", err)
	}
	n, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("admission: unexpected script reply %T", res)
	}
	return n == 1, nil
}
