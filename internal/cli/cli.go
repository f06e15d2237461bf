package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/screenloom/screenloom/pkg/buildinfo"
	"github.com/screenloom/screenloom/pkg/cache"
	"github.com/screenloom/screenloom/pkg/config"
	"github.com/screenloom/screenloom/pkg/pipeline"
	"github.com/screenloom/screenloom/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "screenloom"

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

	configFile string
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
		Use:          "screenloom",
		Short:        "Screenloom turns LLM output streams into navigable app mockups",
		Long:         `Screenloom parses marker-delimited LLM output into individual screens as the tokens arrive, lays them out on a canvas, and composes them into a single self-contained HTML document that navigates between screens without any scripts.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "path to a screenloom.toml config file")

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.flowsCommand())
	root.AddCommand(c.projectsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the config file named by --config, falling back to the
// default search path when the flag is unset.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configFile)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The returned cleanup
// function closes the store and cache and must be called when done.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, func(), error) {
	st, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	ca, err := newCache(ctx, cfg, noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without one", "error", err)
		ca = cache.NewNullCache()
	}

	runner := pipeline.NewRunner(st, ca, nil, c.Logger)
	cleanup := func() {
		ca.Close()
		closeStore()
	}
	return runner, cleanup, nil
}

// newStore builds the project store: MongoDB when a URI is configured,
// otherwise an in-process store that lives for the duration of the command.
func newStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.Mongo.URI != "" {
		ms, err := store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		return ms, func() { _ = ms.Close(context.Background()) }, nil
	}
	mem := store.NewMemoryStore()
	return mem, func() { _ = mem.Close(context.Background()) }, nil
}

// newCache builds the compose cache: Redis when configured, otherwise a
// file cache under the XDG cache directory.
func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Redis.Addr != "" {
		return cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/screenloom/).
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
// Helpers
// =============================================================================

// slugify turns a project name into a safe default file stem.
// "Coffee Tracker" becomes "coffee-tracker".
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "mockup"
	}
	return out
}
