package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jefview/internal/server"
	"github.com/matzehuels/jefview/pkg/cache"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/pipeline"
)

const defaultAddr = "localhost:8080"

// serveCommand creates the serve command for the preview HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		root    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pattern previews over HTTP",
		Long: `Serve the .jef files of a directory over HTTP.

Routes:
  GET /healthz
  GET /patterns
  GET /patterns/{name}
  GET /patterns/{name}/render.{svg,png,json}?x=&y=&w=&h=

Set [cache] redis_addr in the config file to share rendered artifacts
between several servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = orDefault(cfg.Serve.Addr, defaultAddr)
			}
			if root == "" {
				root = orDefault(cfg.Serve.Root, ".")
			}
			return c.runServe(withLogger(cmd.Context(), c.Logger), addr, root, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+defaultAddr+")")
	cmd.Flags().StringVar(&root, "root", "", "directory to serve patterns from (default .)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// orDefault returns v, or fallback when v is empty.
func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func (c *CLI) runServe(ctx context.Context, addr, root string, noCache bool) error {
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return errs.New(errs.ErrCodeInvalidPath, "pattern root %s is not a directory", root)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	runner.Keyer = cache.NewScopedKeyer(runner.Keyer, serveKeyPrefix+cache.Hash([]byte(root))[:12]+":")

	cfg, err := c.config()
	if err != nil {
		return err
	}
	defaults := pipeline.Options{}
	setCLIDefaults(&defaults, cfg)

	srvCfg := server.Config{
		Root:     root,
		Runner:   runner,
		Defaults: defaults,
		Logger:   c.Logger,
	}
	if st, err := c.newStore(ctx); err != nil {
		c.Logger.Warn("palette store unavailable, serving default colours", "err", err)
	} else {
		defer st.Close()
		srvCfg.Store = st
	}

	return server.New(srvCfg).ListenAndServe(ctx, addr)
}
