// Package ratelimit caps manual ingestion triggers with a persisted daily
// counter.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/currentaffairs/newsdesk/internal/news"
)

// DefaultKey is the counter key shared by the manual ingestion endpoints.
const DefaultKey = "manual-fetch"

// DefaultDailyLimit is the number of manual fetches allowed per calendar day.
const DefaultDailyLimit = 10

// Limiter enforces a per-day budget for one operation key. The counter lives
// in a CounterStore so the budget survives restarts; the store performs the
// check-and-increment atomically.
type Limiter struct {
	store news.CounterStore
	clock news.Clock
	key   string
	limit int
}

// New creates a Limiter for the given key and daily limit.
func New(store news.CounterStore, clock news.Clock, key string, limit int) *Limiter {
	return &Limiter{store: store, clock: clock, key: key, limit: limit}
}

// CheckAndIncrement consumes one slot of today's budget and returns the new
// count. It returns news.ErrRateLimited, leaving the counter untouched, when
// the budget is already spent. A counter left over from an earlier day is
// reset before the increment.
func (l *Limiter) CheckAndIncrement(ctx context.Context) (int, error) {
	day := news.DayOf(l.clock.Now())
	count, err := l.store.Increment(ctx, l.key, day, l.limit)
	if err != nil {
		return 0, fmt.Errorf("increment counter %q: %w", l.key, err)
	}
	return count, nil
}

// Count reports how much of today's budget is spent, 0 when no fetch
// happened today.
func (l *Limiter) Count(ctx context.Context) (int, error) {
	day := news.DayOf(l.clock.Now())
	count, err := l.store.Count(ctx, l.key, day)
	if err != nil {
		return 0, fmt.Errorf("read counter %q: %w", l.key, err)
	}
	return count, nil
}

// Limit returns the configured daily budget.
func (l *Limiter) Limit() int {
	return l.limit
}
