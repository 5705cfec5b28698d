// Package config parses the squeuelite command configuration from
// environment variables using caarlos0/env/v11.
//
// Call [Load] once at startup and pass the resulting [Config] to subcommands.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/schorsch3000/squeuelite/pkg/codec"
	"github.com/schorsch3000/squeuelite/pkg/queue"
)

// Config holds all command configuration sourced from environment variables.
type Config struct {
	// Database is a SQLite file path or a postgres:// URL.
	Database string `env:"SQUEUELITE_DB" envDefault:"squeuelite.db"`

	StallTimeout    time.Duration `env:"SQUEUELITE_STALL_TIMEOUT"    envDefault:"300s"`
	MaxRetries      int           `env:"SQUEUELITE_MAX_RETRIES"      envDefault:"3"`
	DoneRetention   time.Duration `env:"SQUEUELITE_DONE_RETENTION"   envDefault:"3600s"`
	FailedRetention time.Duration `env:"SQUEUELITE_FAILED_RETENTION" envDefault:"3600s"`
	Codec           string        `env:"SQUEUELITE_CODEC"            envDefault:"json"`

	// MetricsAddr is where the worker serves /metrics. Empty disables it.
	MetricsAddr string `env:"SQUEUELITE_METRICS_ADDR"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load parses and validates Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields env cannot check on its own.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("SQUEUELITE_DB must not be empty")
	}
	switch c.Codec {
	case codec.NameJSON, codec.NameMsgpack:
	default:
		return fmt.Errorf("SQUEUELITE_CODEC: unknown codec %q", c.Codec)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	return c.QueueConfig().Validate()
}

// QueueConfig returns the queue timing and retry settings.
func (c *Config) QueueConfig() queue.Config {
	return queue.Config{
		StallTimeout:    c.StallTimeout,
		MaxRetries:      c.MaxRetries,
		DoneRetention:   c.DoneRetention,
		FailedRetention: c.FailedRetention,
	}
}

// QueueOptions returns the options for queue.New, logging through logger.
func (c *Config) QueueOptions(logger *slog.Logger) []queue.Option {
	return []queue.Option{
		queue.WithConfig(c.QueueConfig()),
		queue.WithCodec(codec.Get(c.Codec)),
		queue.WithLogger(logger),
	}
}

// NewLogger builds a slog.Logger writing to w at LOG_LEVEL in LOG_FORMAT.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.LogFormat) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
