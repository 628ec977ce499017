// Package cli implements the scorebreak command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tmarcher/scorebreak/pkg/buildinfo"
	"github.com/tmarcher/scorebreak/pkg/cache"
	"github.com/tmarcher/scorebreak/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "scorebreak"

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
		Use:          "scorebreak",
		Short:        "Scorebreak distributes measures across systems and pages",
		Long:         `Scorebreak is a CLI tool for planning music engraving layouts: it breaks a sequence of measure stacks into systems and pages with exact rational arithmetic, then renders the resulting layout.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.planCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// Cache backends selectable via --cache.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Environment variables configuring the Redis backend.
const (
	redisAddrEnv     = "SCOREBREAK_REDIS_ADDR"
	redisPasswordEnv = "SCOREBREAK_REDIS_PASSWORD"
)

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, backend string) (*pipeline.Runner, error) {
	store, err := newCache(ctx, backend)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func newCache(ctx context.Context, backend string) (cache.Cache, error) {
	switch backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		addr := os.Getenv(redisAddrEnv)
		if addr == "" {
			addr = "localhost:6379"
		}
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     addr,
			Password: os.Getenv(redisPasswordEnv),
		})
	case "", CacheFile:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (file, redis, none)", backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scorebreak/).
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

// =============================================================================
// Flag Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
