// Package config loads the TOML configuration and resolves on-disk paths.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed defaults.toml
var defaultConf []byte

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the application configuration loaded from a TOML file.
type Config struct {
	Server ServerConfig `toml:"server"`
	Paths  PathsConfig  `toml:"paths"`
	Cache  CacheConfig  `toml:"cache"`
	Fetch  FetchConfig  `toml:"fetch"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PathsConfig entries are optional; see ResolvePaths.
type PathsConfig struct {
	DataDir        string   `toml:"data_dir"`
	PosterCacheDir string   `toml:"poster_cache_dir"`
	DBPath         string   `toml:"db_path"`
	LibraryDirs    []string `toml:"library_dirs"`
}

type CacheConfig struct {
	MaxEntries int  `toml:"max_entries"`
	Watch      bool `toml:"watch"`
	MaxAgeDays int  `toml:"max_age_days"`
}

// FetchConfig governs downloads of remote poster URLs.
type FetchConfig struct {
	RatePerSecond  float64 `toml:"rate_per_second"`
	Burst          int     `toml:"burst"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxBytes       int64   `toml:"max_bytes"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (c CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

// Default returns the embedded defaults.
func Default() *Config {
	var config Config
	if err := toml.Unmarshal(defaultConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Load reads path over the defaults. A missing file is not an error when
// path is empty.
func Load(path string) (*Config, error) {
	config := Default()
	if strings.TrimSpace(path) == "" {
		return config, config.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("%w: cache.max_entries must be positive", ErrInvalidConfig)
	}
	if c.Fetch.RatePerSecond <= 0 {
		return fmt.Errorf("%w: fetch.rate_per_second must be positive", ErrInvalidConfig)
	}
	if c.Fetch.Burst <= 0 {
		c.Fetch.Burst = 1
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: fetch.timeout_seconds must be positive", ErrInvalidConfig)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("%w: fetch.max_bytes must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalidConfig, c.Log.Level)
	}

	return nil
}

// WriteDefault writes the embedded defaults to path, refusing to overwrite.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, defaultConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
