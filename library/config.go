package library

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the bookreader.toml configuration.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Downloads DownloadsConfig `toml:"downloads"`
	Reading   ReadingConfig   `toml:"reading"`
	Logging   LoggingConfig   `toml:"logging"`
}

type DatabaseConfig struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	WALMode       bool   `toml:"wal_mode"`
}

type DownloadsConfig struct {
	Dir              string `toml:"dir"`               // Archives are saved and unzipped here
	Concurrency      int    `toml:"concurrency"`       // Parallel downloads in FetchAll
	Timeout          string `toml:"timeout"`           // e.g. "30s", whole request including body
	ProgressInterval string `toml:"progress_interval"` // e.g. "200ms", minimum gap between progress callbacks
	SkipDuplicates   bool   `toml:"skip_duplicates"`   // Reuse a stored book whose content HTML digest matches
}

type ReadingConfig struct {
	ChunkSize     int `toml:"chunk_size"`     // Items per page, 0 derives it from terminal width
	SnippetRadius int `toml:"snippet_radius"` // Characters shown either side of a search hit
}

type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "console" or "json"
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:          "bookreader.db",
			BusyTimeoutMS: 5000,
			WALMode:       true,
		},
		Downloads: DownloadsConfig{
			Dir:              "DownloadedBooks",
			Concurrency:      3,
			Timeout:          "5m",
			ProgressInterval: "200ms",
		},
		Reading: ReadingConfig{
			ChunkSize:     0,
			SnippetRadius: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
// Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOOKREADER_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BOOKREADER_DOWNLOADS"); v != "" {
		cfg.Downloads.Dir = v
	}
	if v := os.Getenv("BOOKREADER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks ranges and duration strings.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Downloads.Concurrency < 1 {
		return fmt.Errorf("downloads.concurrency must be at least 1, got %d", c.Downloads.Concurrency)
	}
	if _, err := c.Downloads.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Downloads.ProgressEvery(); err != nil {
		return err
	}
	if c.Reading.ChunkSize < 0 {
		return fmt.Errorf("reading.chunk_size must not be negative, got %d", c.Reading.ChunkSize)
	}
	if c.Reading.SnippetRadius < 0 {
		return fmt.Errorf("reading.snippet_radius must not be negative, got %d", c.Reading.SnippetRadius)
	}
	return nil
}

// TimeoutDuration parses downloads.timeout. Empty means no timeout.
func (d DownloadsConfig) TimeoutDuration() (time.Duration, error) {
	if d.Timeout == "" {
		return 0, nil
	}
	t, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return 0, fmt.Errorf("downloads.timeout: %w", err)
	}
	return t, nil
}

// ProgressEvery parses downloads.progress_interval.
func (d DownloadsConfig) ProgressEvery() (time.Duration, error) {
	if d.ProgressInterval == "" {
		return 0, nil
	}
	t, err := time.ParseDuration(d.ProgressInterval)
	if err != nil {
		return 0, fmt.Errorf("downloads.progress_interval: %w", err)
	}
	return t, nil
}
