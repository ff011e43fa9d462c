package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/stemma/pkg/cache"
	"github.com/matzehuels/stemma/pkg/pipeline"
	"github.com/matzehuels/stemma/pkg/store"
	"github.com/matzehuels/stemma/pkg/store/mongo"
)

// Store and cache backends selectable in the config file.
const (
	backendFile   = "file"
	backendSQLite = "sqlite"
	backendMongo  = "mongo"
	backendRedis  = "redis"
	backendNone   = "none"
)

// envPrefix prefixes every environment override.
const envPrefix = "STEMMA_"

// Config is the contents of config.toml.
//
//	[store]
//	backend = "sqlite"
//	path = "/home/me/trees.db"
//
//	[cache]
//	backend = "redis"
//	[cache.redis]
//	addr = "localhost:6379"
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Server ServerConfig `toml:"server"`
}

// StoreConfig selects where trees are kept.
type StoreConfig struct {
	Backend string       `toml:"backend"` // file (default), sqlite, mongo
	Path    string       `toml:"path"`    // file or sqlite database path
	Mongo   mongo.Config `toml:"mongo"`

	// AutosaveInterval is how often "tree watch" saves.
	AutosaveInterval duration `toml:"autosave_interval"`
}

// CacheConfig selects the layout and artifact cache.
type CacheConfig struct {
	Backend string            `toml:"backend"` // file (default), redis, none
	Dir     string            `toml:"dir"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// LayoutConfig holds layout defaults.
type LayoutConfig struct {
	Direction string  `toml:"direction"`
	Drawer    string  `toml:"drawer"`
	RankSep   float64 `toml:"rank_sep"`
	NodeSep   float64 `toml:"node_sep"`
}

// RenderConfig holds export defaults.
type RenderConfig struct {
	Rasterizer      string  `toml:"rasterizer"`
	Margin          float64 `toml:"margin"`
	Transparent     bool    `toml:"transparent"`
	Photos          bool    `toml:"photos"` // embed remote member photos
	ChromePath      string  `toml:"chrome_path"`
	ChromeNoSandbox bool    `toml:"chrome_no_sandbox"`
}

// ServerConfig configures "stemma serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// duration decodes TOML strings such as "30s".
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Store:  StoreConfig{Backend: backendFile, AutosaveInterval: duration{store.AutosaveInterval}},
		Cache:  CacheConfig{Backend: backendFile},
		Layout: LayoutConfig{Direction: string(pipeline.DefaultDirection), Drawer: pipeline.DefaultDrawer},
		Render: RenderConfig{Rasterizer: pipeline.DefaultRasterizer, Margin: pipeline.DefaultMargin},
	}
}

// loadConfig reads path over the defaults, then applies STEMMA_*
// variables from the environment and from a .env file in the working
// directory. A missing config file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

// applyEnv overrides fields from STEMMA_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STORE":            &c.Store.Backend,
		"STORE_PATH":       &c.Store.Path,
		"MONGO_URI":        &c.Store.Mongo.URI,
		"MONGO_DATABASE":   &c.Store.Mongo.Database,
		"CACHE":            &c.Cache.Backend,
		"CACHE_DIR":        &c.Cache.Dir,
		"REDIS_ADDR":       &c.Cache.Redis.Addr,
		"REDIS_PASSWORD":   &c.Cache.Redis.Password,
		"REDIS_PREFIX":     &c.Cache.Redis.Prefix,
		"DIRECTION":        &c.Layout.Direction,
		"DRAWER":           &c.Layout.Drawer,
		"RASTERIZER":       &c.Render.Rasterizer,
		"CHROME_PATH":      &c.Render.ChromePath,
		"ADDR":             &c.Server.Addr,
		"MONGO_COLLECTION": &c.Store.Mongo.Collection,
	}
	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	bools := map[string]*bool{
		"PHOTOS":            &c.Render.Photos,
		"TRANSPARENT":       &c.Render.Transparent,
		"CHROME_NO_SANDBOX": &c.Render.ChromeNoSandbox,
	}
	for name, dst := range bools {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup(envPrefix + "REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", envPrefix, err)
		}
		c.Cache.Redis.DB = n
	}
	if v, ok := lookup(envPrefix + "AUTOSAVE_INTERVAL"); ok {
		if err := c.Store.AutosaveInterval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sAUTOSAVE_INTERVAL: %w", envPrefix, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	switch c.Store.Backend {
	case "", backendFile, backendSQLite:
	case backendMongo:
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store backend mongo needs store.mongo.uri")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want file, sqlite or mongo)", c.Store.Backend)
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	switch c.Cache.Backend {
	case "", backendFile, backendNone:
	case backendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache backend redis needs cache.redis.addr")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	return nil
}

// pipelineOptions returns the configured layout and render defaults.
func (c Config) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Direction:       c.Layout.Direction,
		Drawer:          c.Layout.Drawer,
		RankSep:         c.Layout.RankSep,
		NodeSep:         c.Layout.NodeSep,
		Margin:          c.Render.Margin,
		Transparent:     c.Render.Transparent,
		Rasterizer:      c.Render.Rasterizer,
		ChromePath:      c.Render.ChromePath,
		ChromeNoSandbox: c.Render.ChromeNoSandbox,
	}
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/stemma/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultConfigPath returns config.toml inside configDir, or "" when no
// home directory is known.
func defaultConfigPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// cacheDir returns the cache directory using XDG standard (~/.cache/stemma/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
