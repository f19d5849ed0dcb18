package app

import (
	"io"
	"log/slog"
	"time"

	"github.com/rubiojr/gascrowd/internal/geo"
	"github.com/rubiojr/gascrowd/internal/route"
)

type Config struct {
	DBPath     string
	CacheTTL   time.Duration
	Logger     *slog.Logger
	Calculator route.DistanceCalculator
}

type Option func(*Config)

// WithDBPath sets the SQLite database file
func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithCacheTTL sets how long the station list stays cached
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) {
		if ttl > 0 {
			c.CacheTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithCalculator replaces the distance calculator used for route matching
func WithCalculator(calc route.DistanceCalculator) Option {
	return func(c *Config) {
		if calc != nil {
			c.Calculator = calc
		}
	}
}

// NewConfig creates a new configuration with default values
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		DBPath:     "gascrowd.db",
		CacheTTL:   10 * time.Minute,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Calculator: geo.Haversine{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}
