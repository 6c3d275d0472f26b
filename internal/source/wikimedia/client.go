// Package wikimedia proxies the Wikimedia "on this day" feed.
package wikimedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/currentaffairs/newsdesk/internal/news"
	"github.com/currentaffairs/newsdesk/internal/telemetry"
)

const upstreamName = "wikimedia"

// Config holds the upstream connection settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

/// Client fetches and reshapes the on-this-day feed. Purely stateless: one
// upstream request per call, no caching, no retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *zap.Logger
}

// New creates a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		logger:     logger.With(zap.String("source", upstreamName)),
	}
}

// OnThisDay returns the events/births/deaths for the given month and day.
// Month and day are validated before any upstream request is made.
func (c *Client) OnThisDay(ctx context.Context, month, day int) (*OnThisDay, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, fmt.Errorf("%w: month %d day %d out of range", news.ErrInvalidInput, month, day)
	}

	endpoint := fmt.Sprintf("%s/feed/v1/wikipedia/en/onthisday/all/%d/%d", c.baseURL, month, day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

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

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := &OnThisDay{
		Events: reshape(payload.Events),
		Births: reshape(payload.Births),
		Deaths: reshape(payload.Deaths),
	}
	c.logger.Debug("fetched on-this-day feed",
		zap.Int("month", month),
		zap.Int("day", day),
		zap.Int("events", len(out.Events)),
		zap.Int("births", len(out.Births)),
		zap.Int("deaths", len(out.Deaths)),
	)
	return out, nil
}

func reshape(in []feedEvent) []Event {
	out := make([]Event, 0, len(in))
	for _, e := range in {
		pages := make([]Page, 0, len(e.Pages))
		for _, p := range e.Pages {
			pages = append(pages, Page{Title: p.Title, Extract: p.Extract})
		}
		out = append(out, Event{
			Year:  strconv.Itoa(e.Year),
			Text:  e.Text,
			Pages: pages,
		})
	}
	return out
}
