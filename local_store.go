package admission

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is how often the local store deletes expired records.
const sweepInterval = time.Minute

type windowRecord struct {
	count     int64
	resetTime time.Time
}

// LocalStore is the process-local fallback WindowStore: a fixed-window
// counter per key. Fixed windows are coarser than the Redis sliding log
// (a burst of up to 2x max can cross a window boundary) and nothing is
// shared between processes; see the package docs for why this is kept as
// the degraded mode.
//
// All records live under one mutex, so concurrent checks for a key at
// the quota boundary cannot both observe count < max. Take never returns
// an error.
type LocalStore struct {
	mu      sync.Mutex
	records map[string]*windowRecord
	closeCh chan struct{}
	closed  bool
}

// NewLocalStore creates the store and starts its background sweep.
// Call Close to stop the sweep when discarding the store.
func NewLocalStore() *LocalStore {
	s := &LocalStore{
		records: make(map[string]*windowRecord),
		closeCh: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *LocalStore) Take(_ context.Context, key string, now time.Time, max int64, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || now.After(rec.resetTime) {
		// First request for the key, or the window elapsed: the record is
		// replaced, not merged.
		s.records[key] = &windowRecord{count: 1, resetTime: now.Add(window)}
		return true, nil
	}
	if rec.count >= max {
		return false, nil
	}
	rec.count++
	return true, nil
}

// Len reports the number of live records. Used by tests and diagnostics.
func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Close stops the background sweep. Safe to call more than once.
func (s *LocalStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.closeCh)
	}
}

func (s *LocalStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.closeCh:
			return
		case now := <-ticker.C:
			s.sweepExpired(now)
		}
	}
}

// sweepExpired deletes records whose window has passed. Records still
// inside their window are never touched, so a sweep cannot change the
// outcome of an in-flight Take.
func (s *LocalStore) sweepExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, rec := range s.records {
		if now.After(rec.resetTime) {
			delete(s.records, key)
		}
	}
}
