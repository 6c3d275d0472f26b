// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	DB        DBConfig        `mapstructure:"db"`
	NewsAPI   NewsAPIConfig   `mapstructure:"newsapi"`
	OnThisDay OnThisDayConfig `mapstructure:"onthisday"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// DBConfig selects and configures the article/counter store.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// NewsAPIConfig configures the top-headlines upstream.
type NewsAPIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	PageSize       int    `mapstructure:"page_size"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// OnThisDayConfig configures the on-this-day upstream.
type OnThisDayConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RateLimitConfig governs the manual-fetch budget.
type RateLimitConfig struct {
	Key        string `mapstructure:"key"`
	DailyLimit int    `mapstructure:"daily_limit"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. A .env file next to the
// binary is folded into the environment first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("NEWSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("db.provider", "memory")
	v.SetDefault("newsapi.base_url", "https://newsapi.org/v2")
	v.SetDefault("newsapi.page_size", 40)
	v.SetDefault("newsapi.timeout_seconds", 15)
	v.SetDefault("onthisday.base_url", "https://api.wikimedia.org")
	v.SetDefault("onthisday.user_agent", "newsdesk/1.0 (+https://github.com/currentaffairs/newsdesk)")
	v.SetDefault("onthisday.timeout_seconds", 15)
	v.SetDefault("ratelimit.key", "manual-fetch")
	v.SetDefault("ratelimit.daily_limit", 10)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.TimeoutSeconds <= 0 {
		return fmt.Errorf("server.timeout_seconds must be > 0")
	}
	switch c.DB.Provider {
	case "memory":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	if c.NewsAPI.PageSize <= 0 {
		return fmt.Errorf("newsapi.page_size must be > 0")
	}
	if c.NewsAPI.TimeoutSeconds <= 0 {
		return fmt.Errorf("newsapi.timeout_seconds must be > 0")
	}
	if c.OnThisDay.TimeoutSeconds <= 0 {
		return fmt.Errorf("onthisday.timeout_seconds must be > 0")
	}
	if c.RateLimit.DailyLimit <= 0 {
		return fmt.Errorf("ratelimit.daily_limit must be > 0")
	}
	if c.RateLimit.Key == "" {
		return fmt.Errorf("ratelimit.key must be set")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// ServerTimeout converts the request timeout config into a duration.
func (c Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// NewsAPITimeout converts the news upstream timeout config into a duration.
func (c Config) NewsAPITimeout() time.Duration {
	return time.Duration(c.NewsAPI.TimeoutSeconds) * time.Second
}

// OnThisDayTimeout converts the feed upstream timeout config into a duration.
func (c Config) OnThisDayTimeout() time.Duration {
	return time.Duration(c.OnThisDay.TimeoutSeconds) * time.Second
}
