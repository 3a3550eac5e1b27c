// Package config loads the CLI and mock server settings from the
// environment, with an optional .env file for development.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session store backends.
const (
	StoreMemory   = "memory"
	StoreBBolt    = "bbolt"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds every setting read from VIERNES_* variables.
type Config struct {
	APIURL string `env:"API_URL" envDefault:"http://localhost:3005/api"`

	// Store selects where the session lives between invocations.
	Store       string `env:"STORE" envDefault:"bbolt"`
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	RedisURL    string `env:"REDIS_URL"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	// RateLimit caps outgoing API requests per second; 0 disables it.
	RateLimit     float64       `env:"RATE_LIMIT" envDefault:"5"`
	PanelInterval time.Duration `env:"PANEL_INTERVAL" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the given .env files (default ".env") when they exist, then
// parses the environment and validates the result.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "VIERNES_"}); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable together.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("VIERNES_API_URL %q is not an http(s) URL", c.APIURL)
	}
	switch c.Store {
	case StoreMemory:
	case StoreBBolt:
		if c.DataDir == "" {
			return errors.New("VIERNES_DATA_DIR is required for the bbolt store")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("VIERNES_POSTGRES_DSN is required for the postgres store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("VIERNES_REDIS_URL is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown VIERNES_STORE %q (want memory, bbolt, postgres or redis)", c.Store)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("VIERNES_REQUEST_TIMEOUT must be positive")
	}
	if c.RateLimit < 0 {
		return errors.New("VIERNES_RATE_LIMIT must not be negative")
	}
	if c.PanelInterval < time.Second {
		return errors.New("VIERNES_PANEL_INTERVAL must be at least 1s")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown VIERNES_LOG_FORMAT %q (want text or json)", c.LogFormat)
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// NewLogger builds the process logger writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
