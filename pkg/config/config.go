// Package config loads coinbubbles settings from TOML or YAML files.
//
// A file only needs the keys it changes; everything else keeps the values
// from [DefaultConfig]:
//
//	[server]
//	addr = ":9090"
//
//	[store]
//	dsn = "sqlite:/var/lib/coinbubbles/sizes.db"
//
// The format is chosen by extension (.toml, .yaml, .yml). Durations are
// written as Go duration strings ("10m", "5s").
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/errors"
	"github.com/matzehuels/coinbubbles/pkg/integrations/coingecko"
	"github.com/matzehuels/coinbubbles/pkg/notify"
)

// AppName names the XDG directories.
const AppName = "coinbubbles"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Directory sources.
const (
	SourceCoinGecko = "coingecko"
	SourceStatic    = "static"
)

// Notification buses.
const (
	BusMemory = "memory"
	BusRedis  = "redis"
)

// Config is the complete application configuration.
type Config struct {
	Canvas    CanvasConfig    `toml:"canvas" yaml:"canvas"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Store     StoreConfig     `toml:"store" yaml:"store"`
	Cache     CacheConfig     `toml:"cache" yaml:"cache"`
	Directory DirectoryConfig `toml:"directory" yaml:"directory"`
	Notify    NotifyConfig    `toml:"notify" yaml:"notify"`
}

// CanvasConfig mirrors [canvas.Options] plus the selection increment.
type CanvasConfig struct {
	Width         float64 `toml:"width" yaml:"width"`
	Height        float64 `toml:"height" yaml:"height"`
	FillRatio     float64 `toml:"fill_ratio" yaml:"fill_ratio"`
	DefaultSize   float64 `toml:"default_size" yaml:"default_size"`
	MinSize       float64 `toml:"min_size" yaml:"min_size"`
	MaxIterations int     `toml:"max_iterations" yaml:"max_iterations"`
	GrowIncrement float64 `toml:"grow_increment" yaml:"grow_increment"`
	Seed          uint64  `toml:"seed" yaml:"seed"`
}

type ServerConfig struct {
	Addr              string        `toml:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `toml:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	// PersistTimeout bounds each background store write and publish.
	PersistTimeout time.Duration `toml:"persist_timeout" yaml:"persist_timeout"`
	// AllowedOrigins are origin prefixes accepted for WebSocket upgrades.
	// Empty allows same-host and localhost origins.
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// StoreConfig selects the size store, see sizes.Open.
type StoreConfig struct {
	DSN string `toml:"dsn" yaml:"dsn"`
}

type CacheConfig struct {
	Backend  string        `toml:"backend" yaml:"backend"`
	Dir      string        `toml:"dir" yaml:"dir"`
	RedisURL string        `toml:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
}

type DirectoryConfig struct {
	Source    string  `toml:"source" yaml:"source"`
	BaseURL   string  `toml:"base_url" yaml:"base_url"`
	APIKey    string  `toml:"api_key" yaml:"api_key"`
	Currency  string  `toml:"currency" yaml:"currency"`
	Limit     int     `toml:"limit" yaml:"limit"`
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit"`
}

type NotifyConfig struct {
	Backend  string `toml:"backend" yaml:"backend"`
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Channel  string `toml:"channel" yaml:"channel"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			FillRatio:     0.5,
			DefaultSize:   50,
			MinSize:       1,
			MaxIterations: 20,
			GrowIncrement: canvas.DefaultGrowIncrement,
			Seed:          canvas.DefaultSeed,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			PersistTimeout:    5 * time.Second,
		},
		Store: StoreConfig{DSN: "memory:"},
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     10 * time.Minute,
		},
		Directory: DirectoryConfig{
			Source:    SourceCoinGecko,
			BaseURL:   coingecko.DefaultBaseURL,
			Currency:  "usd",
			Limit:     coingecko.DefaultLimit,
			RateLimit: 0.5,
		},
		Notify: NotifyConfig{
			Backend: BusMemory,
			Channel: notify.DefaultChannel,
		},
	}
}

// Load reads path on top of [DefaultConfig] and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}
	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config extension %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg *Config) error {
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		data = buf.Bytes()
	case ".yaml", ".yml":
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported config extension %q", ext)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	cv := c.Canvas
	if cv.Width < 0 || cv.Height < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas dimensions must not be negative")
	}
	if cv.FillRatio <= 0 || cv.FillRatio > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas.fill_ratio must be in (0, 1]")
	}
	if cv.MinSize <= 0 || cv.DefaultSize < cv.MinSize {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas sizes must satisfy 0 < min_size <= default_size")
	}
	if cv.MaxIterations <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas.max_iterations must be positive")
	}
	if cv.GrowIncrement < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas.grow_increment must not be negative")
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr is required")
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Directory.Source {
	case SourceStatic:
	case SourceCoinGecko:
		if err := errors.ValidateURL(c.Directory.BaseURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "directory.base_url")
		}
		if c.Directory.RateLimit < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "directory.rate_limit must not be negative")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown directory source %q", c.Directory.Source)
	}

	switch c.Notify.Backend {
	case BusMemory:
	case BusRedis:
		if c.Notify.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "notify.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown notify backend %q", c.Notify.Backend)
	}
	return nil
}

// CanvasOptions converts the canvas section for [canvas.New].
func (c *Config) CanvasOptions(logger *log.Logger) canvas.Options {
	return canvas.Options{
		Width:         c.Canvas.Width,
		Height:        c.Canvas.Height,
		FillRatio:     c.Canvas.FillRatio,
		DefaultSize:   c.Canvas.DefaultSize,
		MinSize:       c.Canvas.MinSize,
		MaxIterations: c.Canvas.MaxIterations,
		Seed:          c.Canvas.Seed,
		Logger:        logger,
	}
}

// CoinGecko converts the directory section for [coingecko.NewClientWithConfig].
func (c *Config) CoinGecko() coingecko.Config {
	return coingecko.Config{
		BaseURL:   c.Directory.BaseURL,
		APIKey:    c.Directory.APIKey,
		Currency:  c.Directory.Currency,
		Limit:     c.Directory.Limit,
		RateLimit: c.Directory.RateLimit,
	}
}

// CacheDir returns the configured cache directory, or the XDG default
// (~/.cache/coinbubbles).
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// DefaultCacheDir honours XDG_CACHE_HOME.
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DefaultConfigPath returns ~/.config/coinbubbles/config.toml, honouring
// XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}
