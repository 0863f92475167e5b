// Package cli implements the fleetmap command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fleetmap/pkg/buildinfo"
	"github.com/matzehuels/fleetmap/pkg/cache"
	"github.com/matzehuels/fleetmap/pkg/config"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "fleetmap"

	// envPrefix prefixes every environment variable the CLI reads.
	envPrefix = "FLEETMAP_"
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

	configPath string
}

// New creates a CLI logging to w at level, unless FLEETMAP_LOG_LEVEL names
// another level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, envLevel(level))}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "fleetmap prepares warehouse maps for robot fleets",
		Long:         `fleetmap turns a warehouse layout into an obstacle grid, computes where a disk-shaped robot can stand, and places clustered charging, pickup, and dropoff points on the result.`,
		Version:      buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv(envPrefix+"CONFIG"), "TOML config file")

	// Register all subcommands
	root.AddCommand(c.rasterizeCommand())
	root.AddCommand(c.inflateCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.bakeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config
// =============================================================================

// loadConfig reads the --config file, or returns the built-in defaults when
// none is given.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath)
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A Redis address selects
// the shared Redis cache over the local file cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool, redisAddr string) (*pipeline.Runner, error) {
	stageCache, err := c.newCache(ctx, noCache, redisAddr)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(stageCache, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool, redisAddr string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, redisAddr)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using redis cache", "addr", redisAddr)
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns FLEETMAP_CACHE_DIR when set, else the XDG cache
// directory (~/.cache/fleetmap/).
func cacheDir() (string, error) {
	if dir := envOr("CACHE_DIR", ""); dir != "" {
		return filepath.Clean(dir), nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// envOr returns the FLEETMAP_-prefixed environment variable key, or fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}
