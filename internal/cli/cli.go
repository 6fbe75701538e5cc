// Package cli implements the coinbubbles command-line interface.
//
// # Commands
//
//   - serve: run the HTTP/WebSocket server
//   - replay: run a scripted sequence of canvas events and write the result
//   - render: render a saved canvas state as SVG, JSON, DOT or PNG
//   - search: query the coin directory
//   - tui: interactive terminal canvas
//   - cache: manage the HTTP response cache
//   - completion: shell completion scripts (provided by cobra)
//
// All commands accept --config to load a TOML or YAML settings file and
// --verbose (-v) for debug logging.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coinbubbles/pkg/buildinfo"
	"github.com/matzehuels/coinbubbles/pkg/cache"
	"github.com/matzehuels/coinbubbles/pkg/config"
	"github.com/matzehuels/coinbubbles/pkg/directory"
	"github.com/matzehuels/coinbubbles/pkg/errors"
	"github.com/matzehuels/coinbubbles/pkg/integrations"
	"github.com/matzehuels/coinbubbles/pkg/integrations/coingecko"
	"github.com/matzehuels/coinbubbles/pkg/notify"
	"github.com/matzehuels/coinbubbles/pkg/sizes"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          config.AppName,
		Short:        "Coinbubbles lays out coins as non-overlapping bubbles",
		Long:         `Coinbubbles keeps a canvas of coin bubbles free of overlaps while they grow with every selection and are dragged around, and serves it over HTTP and WebSocket.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (.toml, .yaml); defaults to ~/.config/coinbubbles/config.toml when present")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// config loads the settings once. An explicit --config must exist; the
// default path is used only when present.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	if path == "" {
		if p, err := config.DefaultConfigPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path == "" {
		c.cfg = config.DefaultConfig()
		return c.cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", path)
	c.cfg = cfg
	return cfg, nil
}

// newCache opens the configured response cache.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == config.CacheRedis {
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newDirectory returns the coin directory. offline forces the static sample.
func (c *CLI) newDirectory(ctx context.Context, cfg *config.Config, offline, noCache bool) (directory.Directory, func() error, error) {
	if offline || cfg.Directory.Source == config.SourceStatic {
		return directory.NewStatic(directory.Sample), func() error { return nil }, nil
	}
	backend, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, nil, err
	}
	client := coingecko.NewClientWithConfig(backend, cfg.Cache.TTL, cfg.CoinGecko(), integrations.WithLogger(c.Logger))
	return client, backend.Close, nil
}

// openStore opens the size store named by dsn, falling back to the config.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config, dsn string) (sizes.Store, error) {
	if dsn == "" {
		dsn = cfg.Store.DSN
	}
	return sizes.Open(ctx, dsn, c.Logger)
}

// openBus opens the configured notification bus.
func (c *CLI) openBus(ctx context.Context, cfg *config.Config) (notify.Bus, error) {
	switch cfg.Notify.Backend {
	case config.BusRedis:
		return notify.NewRedisBus(ctx, cfg.Notify.RedisURL, cfg.Notify.Channel, c.Logger)
	case config.BusMemory, "":
		return notify.NewMemoryBus(c.Logger), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown notify backend %q", cfg.Notify.Backend)
	}
}
