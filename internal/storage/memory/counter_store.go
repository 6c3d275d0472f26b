package memory

import (
	"context"
	"sync"
	"time"

	"github.com/currentaffairs/newsdesk/internal/news"
)

type counter struct {
	count int
	day   time.Time
}

// CounterStore keeps daily fetch counters in a map keyed by operation key.
// The mutex makes check-and-increment atomic, mirroring the single-statement
// update the Postgres store performs.
type CounterStore struct {
	mu       sync.Mutex
	counters map[string]counter
}

// NewCounterStore constructs a CounterStore.
func NewCounterStore() *CounterStore {
	return &CounterStore{counters: make(map[string]counter)}
}

// Increment bumps the counter for key on the given day. A counter from an
// earlier day resets to zero first. Returns news.ErrRateLimited without
// mutating state once limit is reached.
func (s *CounterStore) Increment(_ context.Context, key string, day time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || c.day.Before(day) {
		c = counter{count: 0, day: day}
	}
	if c.count >= limit {
		return 0, news.ErrRateLimited
	}
	c.count++
	s.counters[key] = c
	return c.count, nil
}

// Count returns the counter value for key on the given day, 0 when absent or
// stale.
func (s *CounterStore) Count(_ context.Context, key string, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || c.day.Before(day) {
		return 0, nil
	}
	return c.count, nil
}
