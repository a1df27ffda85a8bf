package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nginly/nginx-analyze-ci/pkg/buildinfo"
	"github.com/nginly/nginx-analyze-ci/pkg/cache"
	"github.com/nginly/nginx-analyze-ci/pkg/config"
	"github.com/nginly/nginx-analyze-ci/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = buildinfo.Name

	// redisPrefix namespaces response cache keys in a shared Redis.
	redisPrefix = appName + ":"
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

	// Getenv reads the environment; tests replace it.
	Getenv func(string) string

	verbose    bool
	configFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Getenv: os.Getenv,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself runs the CI analysis.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.analyzeCommand()
	root.Version = buildinfo.Version
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: <directory>/"+config.FileName+")")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if c.verbose {
			c.SetLogLevel(LogDebug)
			registerDebugHooks(c.Logger)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	// Register all subcommands
	root.AddCommand(c.treesCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig resolves settings for the analyzed directory.
func (c *CLI) loadConfig(dir string) (config.Config, error) {
	return config.Load(config.Options{Dir: dir, File: c.configFile, Getenv: c.Getenv})
}

// newRunner creates a pipeline runner for CLI use. keyScope isolates
// cached responses per API key.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, keyScope string) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if keyScope != "" {
		keyer = cache.NewScopedKeyer(nil, cache.KeyScope(keyScope))
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	switch {
	case !cfg.Cache.Enabled:
		return cache.NewNullCache(), nil
	case cfg.Cache.RedisURL != "":
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL, redisPrefix)
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured file cache directory, or the per-user
// default (~/.cache/nginx-analyze-ci/ on Linux).
func cacheDir(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}
