// Package ingest runs the best-effort headline ingestion loop.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/currentaffairs/newsdesk/internal/news"
	"github.com/currentaffairs/newsdesk/internal/telemetry"
)

// Service fetches headline batches per category/country pair and upserts
// them into the article store.
type Service struct {
	source news.HeadlineSource
	store  news.ArticleStore
	logger *zap.Logger
}

// New creates a Service.
func New(source news.HeadlineSource, store news.ArticleStore, logger *zap.Logger) *Service {
	return &Service{source: source, store: store, logger: logger}
}

// Run ingests one batch for every concrete pair in the expansion of the
// given filters. A failure on one pair is logged and skipped; partial
// ingestion is acceptable. Run only fails when the context is canceled.
// Re-running with the same upstream data is idempotent: articles are keyed
// by URL and overwritten, never duplicated.
func (s *Service) Run(ctx context.Context, category news.Category, country news.Country) error {
	for _, cat := range category.Expand() {
		for _, ctry := range country.Expand() {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("ingest interrupted: %w", err)
			}
			s.ingestPair(ctx, cat, ctry)
		}
	}
	return nil
}

func (s *Service) ingestPair(ctx context.Context, category news.Category, country news.Country) {
	articles, err := s.source.TopHeadlines(ctx, category, country)
	if err != nil {
		telemetry.IncIngestPairFailure(string(category), string(country))
		s.logger.Warn("skipping pair after fetch failure",
			zap.String("category", string(category)),
			zap.String("country", string(country)),
			zap.Error(err),
		)
		return
	}

	stored := 0
	for _, article := range articles {
		if err := s.store.Upsert(ctx, article); err != nil {
			s.logger.Warn("failed to store article",
				zap.String("url", article.URL),
				zap.Error(err),
			)
			continue
		}
		stored++
	}

	telemetry.AddIngestedArticles(string(category), string(country), stored)
	s.logger.Info("fetched and stored headlines",
		zap.String("category", string(category)),
		zap.String("country", string(country)),
		zap.Int("fetched", len(articles)),
		zap.Int("stored", stored),
	)
}
