package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/currentaffairs/newsdesk/internal/config"
	"github.com/currentaffairs/newsdesk/internal/news"
	"github.com/currentaffairs/newsdesk/internal/ratelimit"
	"github.com/currentaffairs/newsdesk/internal/source/wikimedia"
	"github.com/currentaffairs/newsdesk/internal/storage/memory"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeCalendar struct {
	feed      *wikimedia.OnThisDay
	err       error
	lastMonth int
	lastDay   int
	calls     int
}

func (f *fakeCalendar) OnThisDay(_ context.Context, month, day int) (*wikimedia.OnThisDay, error) {
	f.calls++
	f.lastMonth, f.lastDay = month, day
	if f.err != nil {
		return nil, f.err
	}
	return f.feed, nil
}

type fakeIngestor struct {
	err   error
	calls []struct {
		category news.Category
		country  news.Country
	}
}

func (f *fakeIngestor) Run(_ context.Context, category news.Category, country news.Country) error {
	f.calls = append(f.calls, struct {
		category news.Category
		country  news.Country
	}{category, country})
	return f.err
}

type testHarness struct {
	server   *Server
	articles *memory.ArticleStore
	counters *memory.CounterStore
	calendar *fakeCalendar
	ingestor *fakeIngestor
	clock    *fakeClock
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)}
	articles := memory.NewArticleStore()
	counters := memory.NewCounterStore()
	calendar := &fakeCalendar{feed: &wikimedia.OnThisDay{Events: []wikimedia.Event{
		{Year: "1912", Text: "something happened", Pages: []wikimedia.Page{{Title: "Thing"}}},
	}}}
	ingestor := &fakeIngestor{}
	limiter := ratelimit.New(counters, clock, ratelimit.DefaultKey, ratelimit.DefaultDailyLimit)
	cfg := config.Config{
		Server: config.ServerConfig{Port: 8080, TimeoutSeconds: 5},
	}
	server := NewServer(articles, limiter, ingestor, calendar, clock, cfg, zap.NewNop())
	return &testHarness{
		server:   server,
		articles: articles,
		counters: counters,
		calendar: calendar,
		ingestor: ingestor,
		clock:    clock,
	}
}

func (h *testHarness) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCalendarNewsDefaultsToToday(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/calendar-news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, h.calendar.lastMonth)
	require.Equal(t, 15, h.calendar.lastDay)

	var feed wikimedia.OnThisDay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Events, 1)
	require.Equal(t, "1912", feed.Events[0].Year)
}

func TestCalendarNewsExplicitDate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/calendar-news?date=07/04", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 7, h.calendar.lastMonth)
	require.Equal(t, 4, h.calendar.lastDay)
}

func TestCalendarNewsRejectsMalformedDate(t *testing.T) {
	t.Parallel()
	for _, date := range []string{"7-4", "07", "a/b", "7/4/2024"} {
		h := newHarness(t)
		rec := h.do(http.MethodGet, "/calendar-news?date="+date, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "date %q", date)
		require.Equal(t, "Invalid date format. Use MM/DD.", decodeMap(t, rec)["error"])
		require.Zero(t, h.calendar.calls, "date %q should never reach upstream", date)
	}
}

func TestCalendarNewsRejectsOutOfRangeDate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.calendar.err = fmt.Errorf("month 13 out of range: %w", news.ErrInvalidInput)

	rec := h.do(http.MethodGet, "/calendar-news?date=13/01", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid date format. Use MM/DD.", decodeMap(t, rec)["error"])
}

func TestCalendarNewsSurfacesUpstreamStatus(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.calendar.err = &news.UpstreamError{Upstream: "wikimedia", Status: http.StatusNotFound, Detail: "no such feed"}

	rec := h.do(http.MethodGet, "/calendar-news", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeMap(t, rec)
	require.Equal(t, "Failed to fetch calendar news: 404", body["error"])
	require.Equal(t, "no such feed", body["details"])
}

func TestCalendarNewsInternalError(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.calendar.err = errors.New("connection reset")

	rec := h.do(http.MethodGet, "/calendar-news", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error", decodeMap(t, rec)["error"])
}

func TestListNewsEmptyStoreReturnsEmptyArray(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())
}

func TestListNewsFilters(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	base := h.clock.now

	seed := []news.Article{
		{URL: "https://example.com/a", Title: "a", Category: news.CategorySports, Country: news.CountryUS, PublishedAt: base},
		{URL: "https://example.com/b", Title: "b", Category: news.CategorySports, Country: news.CountryIN, PublishedAt: base.Add(time.Hour)},
		{URL: "https://example.com/c", Title: "c", Category: news.CategoryHealth, Country: news.CountryUS, PublishedAt: base.Add(2 * time.Hour)},
	}
	for _, a := range seed {
		require.NoError(t, h.articles.Upsert(ctx, a))
	}

	rec := h.do(http.MethodGet, "/news?category=sports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []news.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, "https://example.com/b", got[0].URL)

	rec = h.do(http.MethodGet, "/news?category=sports&country=us", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "https://example.com/a", got[0].URL)
}

func TestListNewsDateFilter(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.articles.Upsert(ctx, news.Article{
		URL: "https://example.com/old", PublishedAt: time.Date(2024, time.March, 14, 23, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, h.articles.Upsert(ctx, news.Article{
		URL: "https://example.com/new", PublishedAt: time.Date(2024, time.March, 15, 1, 0, 0, 0, time.UTC),
	}))

	rec := h.do(http.MethodGet, "/news?date=2024-03-15", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []news.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "https://example.com/new", got[0].URL)
}

func TestListNewsRejectsBadParams(t *testing.T) {
	t.Parallel()
	for _, target := range []string{
		"/news?category=weather",
		"/news?country=fr",
		"/news?date=15-03-2024",
	} {
		h := newHarness(t)
		rec := h.do(http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.Equal(t, "Invalid input parameters.", decodeMap(t, rec)["error"])
	}
}

func TestManualFetchSuccess(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/manual-fetch", `{"category":"sports","country":"us"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "News fetched and stored successfully.", decodeMap(t, rec)["message"])
	require.Len(t, h.ingestor.calls, 1)
	require.Equal(t, news.CategorySports, h.ingestor.calls[0].category)
	require.Equal(t, news.CountryUS, h.ingestor.calls[0].country)
}

func TestManualFetchDefaultsToWildcards(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/manual-fetch", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, h.ingestor.calls, 1)
	require.Equal(t, news.CategoryAll, h.ingestor.calls[0].category)
	require.Equal(t, news.CountryAll, h.ingestor.calls[0].country)
}

func TestManualFetchRejectsBadJSON(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/manual-fetch", `{"category":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid JSON.", decodeMap(t, rec)["error"])
	require.Empty(t, h.ingestor.calls)

	// A rejected request must not consume the budget.
	count := h.do(http.MethodGet, "/manual-fetch-count", "")
	require.Equal(t, float64(0), decodeMap(t, count)["count"])
}

func TestManualFetchRejectsUnknownValues(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/manual-fetch", `{"category":"weather"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid input parameters.", decodeMap(t, rec)["error"])
	require.Empty(t, h.ingestor.calls)
}

func TestManualFetchRateLimit(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for i := 0; i < ratelimit.DefaultDailyLimit; i++ {
		rec := h.do(http.MethodPost, "/manual-fetch", `{}`)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	count := h.do(http.MethodGet, "/manual-fetch-count", "")
	require.Equal(t, float64(ratelimit.DefaultDailyLimit), decodeMap(t, count)["count"])

	rec := h.do(http.MethodPost, "/manual-fetch", `{}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t,
		"Rate limit exceeded. You can perform up to 10 manual fetches per day.",
		decodeMap(t, rec)["error"])
	require.Len(t, h.ingestor.calls, ratelimit.DefaultDailyLimit)
}

func TestManualFetchBudgetResetsAtMidnight(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for i := 0; i < ratelimit.DefaultDailyLimit; i++ {
		require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/manual-fetch", `{}`).Code)
	}
	require.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/manual-fetch", `{}`).Code)

	h.clock.now = h.clock.now.Add(24 * time.Hour)
	rec := h.do(http.MethodPost, "/manual-fetch", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	count := h.do(http.MethodGet, "/manual-fetch-count", "")
	require.Equal(t, float64(1), decodeMap(t, count)["count"])
}

func TestManualFetchIngestFailureStillConsumesSlot(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.ingestor.err = errors.New("upstream down")

	rec := h.do(http.MethodPost, "/manual-fetch", `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to fetch news.", decodeMap(t, rec)["error"])

	count := h.do(http.MethodGet, "/manual-fetch-count", "")
	require.Equal(t, float64(1), decodeMap(t, count)["count"])
}

func TestFetchNewsTriggersFullIngest(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/fetch-news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, h.ingestor.calls, 1)
	require.Equal(t, news.CategoryAll, h.ingestor.calls[0].category)
	require.Equal(t, news.CountryAll, h.ingestor.calls[0].country)

	count := h.do(http.MethodGet, "/manual-fetch-count", "")
	require.Equal(t, float64(1), decodeMap(t, count)["count"])
}

func TestManualFetchCountStartsAtZero(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/manual-fetch-count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(0), decodeMap(t, rec)["count"])
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeMap(t, rec)["status"])
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	clock := &fakeClock{now: time.Now()}
	limiter := ratelimit.New(memory.NewCounterStore(), clock, ratelimit.DefaultKey, ratelimit.DefaultDailyLimit)
	cfg := config.Config{
		Server: config.ServerConfig{Port: 8080, TimeoutSeconds: 5},
		Auth:   config.AuthConfig{Enabled: true, APIKey: "secret"},
	}
	server := NewServer(h.articles, limiter, h.ingestor, h.calendar, clock, cfg, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/news", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/news", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))

	rec2 := h.do(http.MethodGet, "/healthz", "")
	require.NotEmpty(t, rec2.Header().Get("X-Request-ID"))
}
