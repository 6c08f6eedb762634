package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/pipeline"
	"github.com/matzehuels/jefview/pkg/render"
	"github.com/matzehuels/jefview/pkg/store"
)

// renderCommand creates the render command for exporting a pattern.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr  string
		viewportStr string
		output      string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [file.jef]",
		Short: "Render a pattern to SVG, PNG or JSON",
		Long: `Render a pattern to SVG, PNG or JSON.

Thread colours follow the palette saved with 'palette', if any. Results are
cached by file content and render options.

With a single format, --output names the file and "-" writes to stdout.
With several formats, --output is a base path and each format gets its own
extension. Without --output the input name is used.

The viewport is given in screen units as x,y,w,h. Screen y is the negated
pattern y, so the top of a design has the smallest y.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if formatsStr != "" {
				formats, err := pipeline.ParseFormats(formatsStr)
				if err != nil {
					return err
				}
				opts.Formats = formats
			}
			if viewportStr != "" {
				vp, err := pipeline.ParseViewport(viewportStr)
				if err != nil {
					return err
				}
				opts.Viewport = &vp
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			setCLIDefaults(&opts, cfg)
			opts.Logger = c.Logger
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			if output == "-" && len(opts.Formats) > 1 {
				return errs.New(errs.ErrCodeInvalidInput, "stdout output needs a single format")
			}
			return c.runRender(withLogger(cmd.Context(), c.Logger), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (multiple), or - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, json (comma-separated)")
	cmd.Flags().StringVar(&viewportStr, "viewport", "", "render only zones meeting x,y,w,h")
	cmd.Flags().IntVar(&opts.Width, "width", 0, fmt.Sprintf("output width in pixels (default %d)", pipeline.DefaultWidth))
	cmd.Flags().IntVar(&opts.Height, "height", 0, fmt.Sprintf("output height in pixels (default %d)", pipeline.DefaultHeight))
	cmd.Flags().StringVar(&opts.Background, "background", "", "background colour name or #rrggbb (default "+pipeline.DefaultBackground+")")
	cmd.Flags().BoolVar(&opts.Points, "points", false, "mark stitch points")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(ctx, opts.NoCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st, err := c.newStore(ctx)
	if err != nil {
		c.Logger.Warn("palette store unavailable, using default colours", "err", err)
	} else {
		defer st.Close()
		runner.Palettes = storeLookup(st)
	}

	prog := newProgress(loggerFromContext(ctx))
	spinner := c.spinner(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(input)))

	result, err := runner.Execute(ctx, input, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done("Rendered " + filepath.Base(input))

	for _, i := range result.Session.Unresolved() {
		printWarning(c.errOut, "thread %d: unknown colour 0x%02x drawn black", i, result.Pattern.Threads[i].ColourCode)
	}

	return c.writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		threads:   result.Stats.Threads,
		segments:  result.Stats.Segments,
		cacheHit:  result.CacheInfo.RenderHit,
	})
}

// storeLookup adapts a palette store to the runner.
func storeLookup(st store.Store) pipeline.PaletteLookup {
	return func(ctx context.Context, hash string) (*render.Palette, error) {
		rec, err := st.Get(ctx, hash)
		if err != nil || rec == nil {
			return nil, err
		}
		return &rec.Palette, nil
	}
}

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	threads   int
	segments  int
	cacheHit  bool
}

// writeArtifacts writes each rendered format and reports the files.
func (c *CLI) writeArtifacts(p artifactWriteParams) error {
	if p.output == "-" {
		_, err := c.out.Write(p.artifacts[p.formats[0]])
		return err
	}

	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		path := outputPath(p.output, p.input, format, len(p.formats) > 1)
		if err := os.WriteFile(path, p.artifacts[format], 0o644); err != nil {
			return errs.Wrap(errs.ErrCodeIO, err, "write %s", path)
		}
		paths = append(paths, path)
	}

	printSuccess(c.out, "Rendered %s", filepath.Base(p.input))
	printStats(c.out, p.threads, p.segments, p.cacheHit)
	for _, path := range paths {
		printFile(c.out, path)
	}
	return nil
}

// outputPath derives the file for one format. A single-format output is
// used as given; otherwise a known extension is stripped and replaced.
func outputPath(output, input, format string, multiple bool) string {
	if output != "" && !multiple {
		return output
	}
	base := output
	if base == "" {
		base = input
	}
	ext := filepath.Ext(base)
	if pipeline.ValidFormats[strings.TrimPrefix(strings.ToLower(ext), ".")] || strings.EqualFold(ext, ".jef") {
		base = strings.TrimSuffix(base, ext)
	}
	return base + "." + format
}
