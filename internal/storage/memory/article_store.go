// Package memory provides in-memory store implementations for
// development/testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/currentaffairs/newsdesk/internal/news"
)

// ListLimit is the hard cap on listing results.
const ListLimit = 50

// ArticleStore keeps articles in a map keyed by URL.
type ArticleStore struct {
	mu       sync.RWMutex
	articles map[string]news.Article
}

// NewArticleStore constructs an ArticleStore.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{articles: make(map[string]news.Article)}
}

// Upsert inserts or overwrites the article with the same URL.
func (s *ArticleStore) Upsert(_ context.Context, article news.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[article.URL] = article
	return nil
}

// List returns matching articles newest first, capped at ListLimit.
func (s *ArticleStore) List(_ context.Context, filter news.ListFilter) ([]news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]news.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if !matches(a, filter) {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].PublishedAt.After(matched[j].PublishedAt)
	})
	if len(matched) > ListLimit {
		matched = matched[:ListLimit]
	}
	return matched, nil
}

// Len reports the number of stored articles.
func (s *ArticleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

func matches(a news.Article, filter news.ListFilter) bool {
	if filter.Category != "" && filter.Category != news.CategoryAll && a.Category != filter.Category {
		return false
	}
	if filter.Country != "" && filter.Country != news.CountryAll && a.Country != filter.Country {
		return false
	}
	if !filter.Day.IsZero() {
		next := filter.Day.AddDate(0, 0, 1)
		if a.PublishedAt.Before(filter.Day) || !a.PublishedAt.Before(next) {
			return false
		}
	}
	return true
}
