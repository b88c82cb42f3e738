// Package admission is the request-admission boundary in front of an API:
// a per-(route, client) rate limiter over a sliding time window, and a
// double-submit CSRF guard for state-changing requests.
//
// # Rate Limiting
//
//	limiter, err := admission.New(admission.API)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer limiter.Close()
//
//	if !limiter.Check(r) {
//	    // respond 429
//	}
//
// Check resolves the caller from the X-Forwarded-For header (first entry,
// falling back to a shared "unknown" bucket), derives the quota key
// "rate-limit:<route>:<client>", and admits or rejects against the
// configured window. Rejection is a value, never an error.
//
// # Backends
//
// The window store is chosen once, at construction:
//
//   - Redis (pass WithRedis): a sliding window log on a sorted set. The
//     purge/count/add cycle runs as a single Lua script, so two concurrent
//     checks for the same key cannot both take the last slot. State is
//     shared across every process pointing at the same Redis.
//
//   - Local (the default): a fixed-window counter in a process-local map,
//     swept once a minute. This is a degraded single-process mode: fixed
//     windows admit up to 2x max across a window boundary, and nothing is
//     shared between replicas. It exists so the limiter keeps working
//     when no shared store is configured or reachable.
//
// Redis errors during a check fail open by default: the request is
// admitted and a warning is logged. Pass WithFailOpen(false) to reject
// instead on security-sensitive routes.
//
// # CSRF
//
//	guard := &admission.Guard{}
//
//	token, err := guard.Issue(w)   // sets the cookie, returns the token
//	...
//	if !guard.Verify(r) {          // header vs cookie, constant time
//	    // respond 403
//	}
//
// Verify compares the header and cookie copies of the token with
// crypto/subtle so response timing reveals nothing about where a forged
// token first diverges.
//
// Middleware adapters for net/http, Gin, Echo, Fiber, and gRPC live under
// middleware/; Prometheus instrumentation lives under metrics/.
package admission
