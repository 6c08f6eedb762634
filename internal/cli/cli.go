// Package cli implements the jefview command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jefview/pkg/buildinfo"
	"github.com/matzehuels/jefview/pkg/cache"
	"github.com/matzehuels/jefview/pkg/colours"
	"github.com/matzehuels/jefview/pkg/pipeline"
	"github.com/matzehuels/jefview/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "jefview"

	// serveKeyPrefix scopes server cache keys away from CLI entries.
	serveKeyPrefix = "serve:"
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

	out        io.Writer
	errOut     io.Writer
	tty        bool
	configPath string
	cfg        *Config
}

// New creates a new CLI instance with a default logger writing to w.
// Command output goes to os.Stdout unless changed with SetOutput. Spinners
// are drawn on w only when it is a terminal.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		errOut: w,
		tty:    isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "jefview inspects and renders Janome JEF embroidery files",
		Long:         `jefview decodes Janome JEF embroidery patterns, resolves their thread colours against manufacturer catalogs, and renders them to SVG, PNG or JSON.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.config()
			return err
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/jefview/config.toml)")

	// Register all subcommands
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.coloursCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.recolourCommand())
	root.AddCommand(c.paletteCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the config file once per CLI.
func (c *CLI) config() (*Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			c.cfg = &Config{}
			return c.cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}
	cfg, err := LoadConfig(path, explicit)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", path)
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	resolver, err := c.resolver()
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	r := pipeline.NewRunner(ch, nil, resolver, c.Logger)
	r.TTL = cfg.Cache.TTL
	return r, nil
}

// newCache picks Redis when configured, the file cache otherwise. An
// unreachable Redis falls back to the file cache.
func (c *CLI) newCache(ctx context.Context, cfg *Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.Cache.RedisAddr})
		if err == nil {
			c.Logger.Debug("using redis cache", "addr", cfg.Cache.RedisAddr)
			return rc, nil
		}
		c.Logger.Warn("redis unavailable, using file cache", "err", err)
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// resolver returns the configured catalog or the embedded default.
func (c *CLI) resolver() (*colours.Resolver, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Path != "" {
		return colours.LoadFile(cfg.Catalog.Path)
	}
	return colours.Default()
}

// newStore opens the palette database.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath()
	}
	return store.OpenSQLite(ctx, path)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/jefview/).
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

// configDir returns the config directory using XDG standard (~/.config/jefview/).
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

// =============================================================================
// Options Helpers
// =============================================================================

// setCLIDefaults applies config file values, then pipeline defaults.
func setCLIDefaults(opts *pipeline.Options, cfg *Config) {
	if opts.Width == 0 {
		opts.Width = cfg.Render.Width
	}
	if opts.Height == 0 {
		opts.Height = cfg.Render.Height
	}
	if opts.Background == "" {
		opts.Background = cfg.Render.Background
	}
	if len(opts.Formats) == 0 {
		opts.Formats = cfg.Render.Formats
	}
	opts.Points = opts.Points || cfg.Render.Points
	opts.SetRenderDefaults()
}
