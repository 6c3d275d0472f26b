// Command newsdesk runs the news aggregation HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/currentaffairs/newsdesk/internal/api"
	"github.com/currentaffairs/newsdesk/internal/clock/system"
	"github.com/currentaffairs/newsdesk/internal/config"
	"github.com/currentaffairs/newsdesk/internal/ingest"
	"github.com/currentaffairs/newsdesk/internal/logging"
	"github.com/currentaffairs/newsdesk/internal/news"
	"github.com/currentaffairs/newsdesk/internal/ratelimit"
	"github.com/currentaffairs/newsdesk/internal/source/newsapi"
	"github.com/currentaffairs/newsdesk/internal/source/wikimedia"
	"github.com/currentaffairs/newsdesk/internal/storage/memory"
	"github.com/currentaffairs/newsdesk/internal/storage/postgres"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "newsdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()

	var (
		articles news.ArticleStore
		counters news.CounterStore
	)
	switch cfg.DB.Provider {
	case "postgres":
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if articles, err = postgres.NewArticleStore(pool); err != nil {
			return fmt.Errorf("article store: %w", err)
		}
		if counters, err = postgres.NewCounterStore(pool); err != nil {
			return fmt.Errorf("counter store: %w", err)
		}
	case "memory":
		articles = memory.NewArticleStore()
		counters = memory.NewCounterStore()
	default:
		return fmt.Errorf("unknown db.provider %q", cfg.DB.Provider)
	}
	logger.Info("storage ready", zap.String("provider", cfg.DB.Provider))

	headlines := newsapi.New(newsapi.Config{
		BaseURL:  cfg.NewsAPI.BaseURL,
		APIKey:   cfg.NewsAPI.APIKey,
		PageSize: cfg.NewsAPI.PageSize,
		Timeout:  cfg.NewsAPITimeout(),
	}, clock, logger)
	calendar := wikimedia.New(wikimedia.Config{
		BaseURL:   cfg.OnThisDay.BaseURL,
		UserAgent: cfg.OnThisDay.UserAgent,
		Timeout:   cfg.OnThisDayTimeout(),
	}, logger)

	limiter := ratelimit.New(counters, clock, cfg.RateLimit.Key, cfg.RateLimit.DailyLimit)
	ingestor := ingest.New(headlines, articles, logger)
	server := api.NewServer(articles, limiter, ingestor, calendar, clock, cfg, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Handler(),
		// The timeout middleware bounds handler time; these bound the
		// connection itself.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
