package admission_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/courtside/admission"
)

// fakeClock steps time manually so window rollover tests never sleep.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// failingStore simulates an unreachable distributed backend.
type failingStore struct{ err error }

func (f *failingStore) Take(context.Context, string, time.Time, int64, time.Duration) (bool, error) {
	return false, f.err
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		cfg         admission.Config
		expectError bool
	}{
		{
			name: "valid config",
			cfg:  admission.Config{Max: 10, Window: time.Minute},
		},
		{
			name:        "zero max",
			cfg:         admission.Config{Max: 0, Window: time.Minute},
			expectError: true,
		},
		{
			name:        "negative max",
			cfg:         admission.Config{Max: -1, Window: time.Minute},
			expectError: true,
		},
		{
			name:        "zero window",
			cfg:         admission.Config{Max: 10, Window: 0},
			expectError: true,
		},
		{
			name:        "negative window",
			cfg:         admission.Config{Max: 10, Window: -time.Second},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := admission.New(tt.cfg)
			if tt.expectError {
				require.Error(t, err)
				require.Contains(t, err.Error(), "must be positive")
				require.Nil(t, limiter)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, limiter)
			limiter.Close()
		})
	}
}

func TestPresets_AllValid(t *testing.T) {
	for name, cfg := range map[string]admission.Config{
		"strict": admission.Strict, "normal": admission.Normal,
		"relaxed": admission.Relaxed, "auth": admission.Auth, "api": admission.API,
	} {
		t.Run(name, func(t *testing.T) {
			limiter, err := admission.New(cfg)
			require.NoError(t, err)
			limiter.Close()
		})
	}
}

func TestCheck_QuotaAndRollover(t *testing.T) {
	clock := newFakeClock()
	limiter, err := admission.New(
		admission.Config{Max: 10, Window: 60 * time.Second},
		admission.WithNow(clock.Now),
	)
	require.NoError(t, err)
	defer limiter.Close()

	for i := 0; i < 10; i++ {
		r := httptest.NewRequest("GET", "/api/players", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
		require.True(t, limiter.Check(r), "request %d should be admitted", i+1)
	}

	clock.Advance(500 * time.Millisecond)
	r := httptest.NewRequest("GET", "/api/players", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	require.False(t, limiter.Check(r), "11th request in window should be rejected")

	clock.Advance(60500 * time.Millisecond) // past the window
	r = httptest.NewRequest("GET", "/api/players", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	require.True(t, limiter.Check(r), "request after rollover should be admitted")
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	limiter, err := admission.New(admission.Config{Max: 2, Window: time.Minute})
	require.NoError(t, err)
	defer limiter.Close()

	// Exhaust one client's quota.
	for i := 0; i < 2; i++ {
		r := httptest.NewRequest("GET", "/api/players", nil)
		r.Header.Set("X-Forwarded-For", "10.0.0.1")
		require.True(t, limiter.Check(r))
	}
	r := httptest.NewRequest("GET", "/api/players", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1")
	require.False(t, limiter.Check(r))

	// A different client on the same route is untouched.
	r = httptest.NewRequest("GET", "/api/players", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.2")
	require.True(t, limiter.Check(r))

	// Same client on a different route is untouched.
	r = httptest.NewRequest("GET", "/api/leagues", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.1")
	require.True(t, limiter.Check(r))
}

func TestCheck_FailOpenOnStoreError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	limiter, err := admission.New(
		admission.Config{Max: 3, Window: time.Minute},
		admission.WithStore(&failingStore{err: errors.New("dial tcp: i/o timeout")}),
		admission.WithLogger(zap.New(core)),
	)
	require.NoError(t, err)

	r := httptest.NewRequest("POST", "/api/predictions", nil)
	require.True(t, limiter.Check(r), "store error should fail open")

	require.Equal(t, 1, logs.Len(), "failure should be logged, not surfaced")
	entry := logs.All()[0]
	require.Equal(t, "admission: window store unavailable", entry.Message)
}

func TestCheck_FailClosedWhenConfigured(t *testing.T) {
	limiter, err := admission.New(
		admission.Config{Max: 3, Window: time.Minute},
		admission.WithStore(&failingStore{err: errors.New("connection refused")}),
		admission.WithFailOpen(false),
	)
	require.NoError(t, err)

	r := httptest.NewRequest("POST", "/auth/token", nil)
	require.False(t, limiter.Check(r))
}

func TestAllow_KeyPrefix(t *testing.T) {
	var seenKey string
	limiter, err := admission.New(
		admission.Config{Max: 1, Window: time.Minute},
		admission.WithStore(storeFunc(func(_ context.Context, key string, _ time.Time, _ int64, _ time.Duration) (bool, error) {
			seenKey = key
			return true, nil
		})),
		admission.WithKeyPrefix("app1:"),
	)
	require.NoError(t, err)

	_, err = limiter.Allow(context.Background(), admission.Key("/api/players", "10.0.0.1"))
	require.NoError(t, err)
	require.Equal(t, "app1:rate-limit:/api/players:10.0.0.1", seenKey)
}

type storeFunc func(ctx context.Context, key string, now time.Time, max int64, window time.Duration) (bool, error)

func (f storeFunc) Take(ctx context.Context, key string, now time.Time, max int64, window time.Duration) (bool, error) {
	return f(ctx, key, now, max, window)
}
