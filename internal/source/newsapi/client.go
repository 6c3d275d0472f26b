// Package newsapi implements the top-headlines source against a
// NewsAPI-compatible upstream.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/currentaffairs/newsdesk/internal/news"
	"github.com/currentaffairs/newsdesk/internal/telemetry"
)

const upstreamName = "newsapi"

// DefaultPageSize is the batch size requested per category/country pair.
const DefaultPageSize = 40

// Config holds the upstream connection settings.
type Config struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
}

// Client fetches top headlines. It implements news.HeadlineSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	clock      news.Clock
	logger     *zap.Logger
}

// New creates a Client.
func New(cfg Config, clock news.Clock, logger *zap.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   pageSize,
		clock:      clock,
		logger:     logger.With(zap.String("source", upstreamName)),
	}
}

// TopHeadlines fetches one batch for a concrete category/country pair and
// returns the transformed domain articles.
func (c *Client) TopHeadlines(ctx context.Context, category news.Category, country news.Country) ([]news.Article, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if category != "" && category != news.CategoryAll {
		q.Set("category", string(category))
	}
	if country != "" && country != news.CountryAll {
		q.Set("country", string(country))
	}
	endpoint := c.baseURL + "/top-headlines?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	telemetry.IncUpstreamRequest(upstreamName, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &news.UpstreamError{
			Upstream: upstreamName,
			Status:   resp.StatusCode,
			Detail:   string(detail),
		}
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	articles := c.transform(payload.Articles, category, country)
	c.logger.Debug("fetched headlines",
		zap.String("category", string(category)),
		zap.String("country", string(country)),
		zap.Int("count", len(articles)),
	)
	return articles, nil
}

// transform maps upstream articles to the domain shape, substituting
// defaults for missing optional fields. Articles without a URL are dropped
// since the URL is the storage key.
func (c *Client) transform(in []apiArticle, category news.Category, country news.Country) []news.Article {
	out := make([]news.Article, 0, len(in))
	for _, a := range in {
		if a.URL == "" {
			continue
		}
		out = append(out, news.Article{
			Title:       stringOr(a.Title, "No Title"),
			Description: stringOr(a.Description, "No Description"),
			URL:         a.URL,
			ImageURL:    stringOr(a.URLToImage, ""),
			PublishedAt: c.publishedAt(a.PublishedAt),
			Content:     stringOr(a.Content, ""),
			Category:    category,
			Country:     country,
			Source: news.Source{
				ID:   a.Source.ID,
				Name: stringOr(a.Source.Name, "Unknown Source"),
			},
		})
	}
	return out
}

func (c *Client) publishedAt(raw *string) time.Time {
	if raw == nil {
		return c.clock.Now()
	}
	ts, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return c.clock.Now()
	}
	return ts
}

func stringOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
