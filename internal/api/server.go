// Package api exposes the HTTP interface for the news service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/currentaffairs/newsdesk/internal/config"
	"github.com/currentaffairs/newsdesk/internal/news"
	"github.com/currentaffairs/newsdesk/internal/ratelimit"
	"github.com/currentaffairs/newsdesk/internal/source/wikimedia"
	"github.com/currentaffairs/newsdesk/internal/telemetry"
)

// Ingestor triggers one ingestion run over the expanded filter pairs.
type Ingestor interface {
	Run(ctx context.Context, category news.Category, country news.Country) error
}

// CalendarSource serves the reshaped on-this-day feed.
type CalendarSource interface {
	OnThisDay(ctx context.Context, month, day int) (*wikimedia.OnThisDay, error)
}

// Server wires HTTP handlers to the stores, the limiter, and the upstreams.
type Server struct {
	router   chi.Router
	articles news.ArticleStore
	limiter  *ratelimit.Limiter
	ingestor Ingestor
	calendar CalendarSource
	clock    news.Clock
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	articles news.ArticleStore,
	limiter *ratelimit.Limiter,
	ingestor Ingestor,
	calendar CalendarSource,
	clock news.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		articles: articles,
		limiter:  limiter,
		ingestor: ingestor,
		calendar: calendar,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(telemetry.Middleware)
	r.Use(timeoutMiddleware(cfg.ServerTimeout()))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Get("/calendar-news", s.calendarNews)
	r.Get("/news", s.listNews)
	r.Post("/manual-fetch", s.manualFetch)
	r.Post("/fetch-news", s.fetchNews)
	r.Get("/manual-fetch-count", s.manualFetchCount)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The store is the only downstream worth gating readiness on; a cheap
	// listing probe covers it.
	if _, err := s.articles.List(r.Context(), news.ListFilter{}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

const invalidDateMessage = "Invalid date format. Use MM/DD."

func (s *Server) calendarNews(w http.ResponseWriter, r *http.Request) {
	now := s.clock.Now()
	month, day := int(now.Month()), now.Day()

	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		parts := strings.Split(dateParam, "/")
		if len(parts) != 2 {
			writeError(w, http.StatusBadRequest, invalidDateMessage)
			return
		}
		var err error
		month, err = strconv.Atoi(parts[0])
		if err != nil {
			writeError(w, http.StatusBadRequest, invalidDateMessage)
			return
		}
		day, err = strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusBadRequest, invalidDateMessage)
			return
		}
	}

	feed, err := s.calendar.OnThisDay(r.Context(), month, day)
	if err != nil {
		var upErr *news.UpstreamError
		switch {
		case errors.Is(err, news.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, invalidDateMessage)
		case errors.As(err, &upErr):
			writeJSON(w, upErr.Status, map[string]string{
				"error":   fmt.Sprintf("Failed to fetch calendar news: %d", upErr.Status),
				"details": upErr.Detail,
			})
		default:
			s.logger.Error("on-this-day fetch failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) listNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter news.ListFilter

	if raw := q.Get("category"); raw != "" {
		category, err := news.ParseCategory(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input parameters.")
			return
		}
		filter.Category = category
	}
	if raw := q.Get("country"); raw != "" {
		country, err := news.ParseCountry(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input parameters.")
			return
		}
		filter.Country = country
	}
	if raw := q.Get("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, s.clock.Now().Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input parameters.")
			return
		}
		filter.Day = day
	}

	articles, err := s.articles.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("article listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if articles == nil {
		articles = []news.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

type manualFetchRequest struct {
	Category *string `json:"category"`
	Country  *string `json:"country"`
}

func (s *Server) manualFetch(w http.ResponseWriter, r *http.Request) {
	var req manualFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON.")
		return
	}

	category := news.CategoryAll
	if req.Category != nil {
		parsed, err := news.ParseCategory(*req.Category)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input parameters.")
			return
		}
		category = parsed
	}
	country := news.CountryAll
	if req.Country != nil {
		parsed, err := news.ParseCountry(*req.Country)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid input parameters.")
			return
		}
		country = parsed
	}

	s.runIngest(w, r, category, country)
}

// fetchNews is the body-less trigger: a full wildcard ingest sharing the
// manual-fetch budget.
func (s *Server) fetchNews(w http.ResponseWriter, r *http.Request) {
	s.runIngest(w, r, news.CategoryAll, news.CountryAll)
}

func (s *Server) runIngest(w http.ResponseWriter, r *http.Request, category news.Category, country news.Country) {
	count, err := s.limiter.CheckAndIncrement(r.Context())
	if err != nil {
		if errors.Is(err, news.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, fmt.Sprintf(
				"Rate limit exceeded. You can perform up to %d manual fetches per day.", s.limiter.Limit()))
			return
		}
		s.logger.Error("rate limit check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := s.ingestor.Run(r.Context(), category, country); err != nil {
		s.logger.Error("manual fetch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch news.")
		return
	}

	s.logger.Info("manual fetch completed",
		zap.String("category", string(category)),
		zap.String("country", string(country)),
		zap.Int("fetch_count", count),
	)
	writeJSON(w, http.StatusOK, map[string]string{"message": "News fetched and stored successfully."})
}

func (s *Server) manualFetchCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.limiter.Count(r.Context())
	if err != nil {
		s.logger.Error("fetch count lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
