package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/currentaffairs/newsdesk/internal/news"
)

// ListLimit is the hard cap on listing results.
const ListLimit = 50

// ArticleStore persists headlines in the articles table, keyed by URL.
type ArticleStore struct {
	db DB
}

// NewArticleStore creates an ArticleStore on top of an existing pool.
func NewArticleStore(db DB) (*ArticleStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &ArticleStore{db: db}, nil
}

const upsertArticleSQL = `
INSERT INTO articles (
	url,
	title,
	description,
	image_url,
	published_at,
	content,
	category,
	country,
	source_id,
	source_name
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	image_url = EXCLUDED.image_url,
	published_at = EXCLUDED.published_at,
	content = EXCLUDED.content,
	category = EXCLUDED.category,
	country = EXCLUDED.country,
	source_id = EXCLUDED.source_id,
	source_name = EXCLUDED.source_name`

// Upsert inserts the article or overwrites the row with the same URL.
func (s *ArticleStore) Upsert(ctx context.Context, article news.Article) error {
	if article.URL == "" {
		return fmt.Errorf("article url is required")
	}
	_, err := s.db.Exec(ctx, upsertArticleSQL,
		article.URL,
		article.Title,
		article.Description,
		article.ImageURL,
		article.PublishedAt,
		article.Content,
		string(article.Category),
		string(article.Country),
		article.Source.ID,
		article.Source.Name,
	)
	if err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}

// List returns matching articles ordered newest first, capped at ListLimit.
func (s *ArticleStore) List(ctx context.Context, filter news.ListFilter) ([]news.Article, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT url, title, description, image_url, published_at, content, category, country, source_id, source_name FROM articles`)

	var conds []string
	var args []any
	if filter.Category != "" && filter.Category != news.CategoryAll {
		args = append(args, string(filter.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Country != "" && filter.Country != news.CountryAll {
		args = append(args, string(filter.Country))
		conds = append(conds, fmt.Sprintf("country = $%d", len(args)))
	}
	if !filter.Day.IsZero() {
		args = append(args, filter.Day)
		conds = append(conds, fmt.Sprintf("published_at >= $%d", len(args)))
		args = append(args, filter.Day.AddDate(0, 0, 1))
		conds = append(conds, fmt.Sprintf("published_at < $%d", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(fmt.Sprintf(" ORDER BY published_at DESC LIMIT %d", ListLimit))

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []news.Article
	for rows.Next() {
		var a news.Article
		var category, country string
		if err := rows.Scan(
			&a.URL,
			&a.Title,
			&a.Description,
			&a.ImageURL,
			&a.PublishedAt,
			&a.Content,
			&category,
			&country,
			&a.Source.ID,
			&a.Source.Name,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Category = news.Category(category)
		a.Country = news.Country(country)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}
