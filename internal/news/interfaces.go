package news

import (
	"context"
	"time"
)

// ArticleStore persists headlines keyed by URL.
type ArticleStore interface {
	// Upsert inserts the article or overwrites the existing row with the
	// same URL.
	Upsert(ctx context.Context, article Article) error
	// List returns matching articles newest first, capped at the store's
	// listing limit.
	List(ctx context.Context, filter ListFilter) ([]Article, error)
}

// CounterStore persists the daily fetch counters used for rate limiting.
// At most one counter exists per key.
type CounterStore interface {
	// Increment bumps the counter for key on the given day, resetting a
	// stale counter first. It returns ErrRateLimited without mutating
	// state when the counter already reached limit for that day.
	Increment(ctx context.Context, key string, day time.Time, limit int) (int, error)
	// Count returns the counter value for key on the given day, 0 when the
	// counter is absent or stale.
	Count(ctx context.Context, key string, day time.Time) (int, error)
}

// HeadlineSource fetches one batch of top headlines for a concrete
// category/country pair.
type HeadlineSource interface {
	TopHeadlines(ctx context.Context, category Category, country Country) ([]Article, error)
}

// Clock abstracts time.Now so day boundaries are testable.
type Clock interface {
	Now() time.Time
}
