package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/currentaffairs/newsdesk/internal/news"
)

// CounterStore persists the daily fetch counters. The increment runs as a
// single conditional statement so concurrent callers cannot push the count
// past the limit.
type CounterStore struct {
	db DB
}

// NewCounterStore creates a CounterStore on top of an existing pool.
func NewCounterStore(db DB) (*CounterStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &CounterStore{db: db}, nil
}

// The WHERE clause admits the update only when the stored day is stale
// (reset) or the count is still below the limit; otherwise no row comes
// back and the state is untouched.
const incrementCounterSQL = `
INSERT INTO fetch_counters (op_key, count, day)
VALUES ($1, 1, $2)
ON CONFLICT (op_key) DO UPDATE SET
	count = CASE WHEN fetch_counters.day < EXCLUDED.day THEN 1 ELSE fetch_counters.count + 1 END,
	day = CASE WHEN fetch_counters.day < EXCLUDED.day THEN EXCLUDED.day ELSE fetch_counters.day END
WHERE fetch_counters.day < EXCLUDED.day OR fetch_counters.count < $3
RETURNING count`

// Increment bumps the counter for key on the given day, resetting a stale
// counter first. Returns news.ErrRateLimited when the day's budget is spent.
func (s *CounterStore) Increment(ctx context.Context, key string, day time.Time, limit int) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, incrementCounterSQL, key, day, limit).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, news.ErrRateLimited
	}
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	return count, nil
}

const readCounterSQL = `
SELECT count FROM fetch_counters WHERE op_key = $1 AND day >= $2`

// Count returns the counter value for key on the given day, 0 when the
// counter is absent or stale.
func (s *CounterStore) Count(ctx context.Context, key string, day time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, readCounterSQL, key, day).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return count, nil
}
