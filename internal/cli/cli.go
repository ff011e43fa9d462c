// Package cli implements the stemma command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stemma/pkg/cache"
	"github.com/matzehuels/stemma/pkg/httputil"
	"github.com/matzehuels/stemma/pkg/pipeline"
	"github.com/matzehuels/stemma/pkg/store"
	"github.com/matzehuels/stemma/pkg/store/mongo"
	"github.com/matzehuels/stemma/pkg/store/sqlite"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stemma"

	// sqliteFileName is the default database file of the sqlite backend.
	sqliteFileName = "trees.db"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	configPath string
	// openStore overrides the configured store, for tests.
	openStore func(ctx context.Context) (store.Store, error)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		Config:     defaultConfig(),
		configPath: defaultConfigPath(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Store Factory
// =============================================================================

// store opens the configured tree store, wrapped with observability hooks.
func (c *CLI) store(ctx context.Context) (store.Store, error) {
	if c.openStore != nil {
		return c.openStore(ctx)
	}
	cfg := c.Config.Store
	var (
		s   store.Store
		err error
	)
	switch cfg.Backend {
	case backendSQLite:
		path := cfg.Path
		if path == "" {
			dir, derr := configDir()
			if derr != nil {
				return nil, derr
			}
			path = filepath.Join(dir, sqliteFileName)
		}
		s, err = sqlite.OpenStore(ctx, path)
	case backendMongo:
		s, err = mongo.Connect(ctx, cfg.Mongo)
	default:
		s, err = store.NewFileStore(cfg.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.backendName(), err)
	}
	c.Logger.Debug("opened store", "backend", c.backendName())
	return store.Observe(s, c.backendName()), nil
}

func (c *CLI) backendName() string {
	if c.Config.Store.Backend == "" {
		return backendFile
	}
	return c.Config.Store.Backend
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, c.cacheKeyer(noCache), c.Logger), nil
}

// cacheKeyer scopes cache keys with the Redis prefix, so several
// deployments can share one server. Local caches use plain keys.
func (c *CLI) cacheKeyer(noCache bool) cache.Keyer {
	cfg := c.Config.Cache
	if noCache || cfg.Backend != backendRedis || cfg.Redis.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Redis.Prefix)
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == backendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == backendRedis {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	}
	dir, err := c.layoutCacheDir()
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// photoFetcher returns the fetcher used to embed member photos, or nil
// when photos are disabled.
func (c *CLI) photoFetcher(enabled bool) pipeline.PhotoFetcher {
	if !enabled {
		return nil
	}
	pc, err := photoCache()
	if err != nil {
		c.Logger.Debug("photo cache unavailable", "err", err)
	}
	return httputil.NewFetcher(pc)
}

// photoCache opens the on-disk cache of downloaded photos.
func photoCache() (*httputil.Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return httputil.NewCache(filepath.Join(dir, "photos"), httputil.DefaultTTL)
}

// =============================================================================
// Options Helpers
// =============================================================================

// cliOptions returns pipeline options seeded from the config file.
func (c *CLI) cliOptions() pipeline.Options {
	opts := c.Config.pipelineOptions()
	opts.Logger = c.Logger
	return opts
}
