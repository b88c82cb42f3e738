package admission

import (
	"context"
	"time"
)

// WindowStore is the quota ledger behind a RateLimiter. Implementations
// must be safe for concurrent use.
type WindowStore interface {
	// Take runs one admission cycle for key: drop state older than the
	// window, count what remains, and record the request only when it is
	// admitted. The cycle must be atomic per key, so that two concurrent
	// callers cannot both take the last slot. A rejected request leaves
	// the ledger untouched.
	Take(ctx context.Context, key string, now time.Time, max int64, window time.Duration) (bool, error)
}
