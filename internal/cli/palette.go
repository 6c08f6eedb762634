package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jefview/pkg/cache"
	"github.com/matzehuels/jefview/pkg/pipeline"
	"github.com/matzehuels/jefview/pkg/render"
	"github.com/matzehuels/jefview/pkg/store"
)

// paletteOpts holds the edit requested on the command line. Nil fields are
// left unchanged.
type paletteOpts struct {
	thread         int
	interpretation *int
	visible        *bool
	reset          bool
}

func (o paletteOpts) edits() bool {
	return o.interpretation != nil || o.visible != nil
}

// paletteCommand creates the palette command, which stores per-thread
// display choices for a pattern.
func (c *CLI) paletteCommand() *cobra.Command {
	var (
		opts           paletteOpts
		interpretation int
		hide, show     bool
	)

	cmd := &cobra.Command{
		Use:   "palette [file.jef]",
		Short: "Choose colour interpretations and hide threads",
		Long: `Choose which catalog interpretation each thread is drawn with and which
threads are drawn at all.

Choices are saved per pattern content in the palette database and picked up
by 'render' and 'serve'. Without edit flags the current palette is shown.

Examples:
  jefview palette rose.jef --thread 2 --interpretation 1
  jefview palette rose.jef --thread 0 --hide
  jefview palette rose.jef --reset`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("interpretation") {
				opts.interpretation = &interpretation
			}
			if hide || show {
				v := show
				opts.visible = &v
			}
			return c.runPalette(withLogger(cmd.Context(), c.Logger), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.thread, "thread", 0, "thread index to edit")
	cmd.Flags().IntVar(&interpretation, "interpretation", 0, "catalog interpretation to draw the thread with")
	cmd.Flags().BoolVar(&hide, "hide", false, "hide the thread")
	cmd.Flags().BoolVar(&show, "show", false, "show the thread")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "delete the saved palette")
	cmd.MarkFlagsMutuallyExclusive("hide", "show")
	cmd.MarkFlagsMutuallyExclusive("reset", "interpretation")
	cmd.MarkFlagsMutuallyExclusive("reset", "hide")
	cmd.MarkFlagsMutuallyExclusive("reset", "show")

	return cmd
}

func (c *CLI) runPalette(ctx context.Context, path string, opts paletteOpts) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := runner.Load(ctx, path)
	if err != nil {
		return err
	}
	hash := cache.Hash(p.Bytes())

	if opts.reset {
		if err := st.Delete(ctx, hash); err != nil {
			return err
		}
		printSuccess(c.out, "Palette reset for %s", path)
		return nil
	}

	sessOpts := pipeline.Options{Logger: c.Logger}
	rec, err := st.Get(ctx, hash)
	if err != nil {
		return err
	}
	if rec != nil {
		sessOpts.Palette = &rec.Palette
	}
	s, err := runner.NewSession(ctx, p, sessOpts)
	if err != nil {
		return err
	}

	if opts.edits() {
		if opts.interpretation != nil {
			if err := s.SetInterpretation(opts.thread, *opts.interpretation); err != nil {
				return err
			}
		}
		if opts.visible != nil {
			if err := s.SetVisible(opts.thread, *opts.visible); err != nil {
				return err
			}
		}
		if err := savePalette(ctx, st, hash, filepath.Base(path), s.Palette()); err != nil {
			return err
		}
		printSuccess(c.out, "Saved palette for %s", path)
	}

	printPalette(c, s)
	return nil
}

// savePalette stores p, or deletes the record when p is the default.
func savePalette(ctx context.Context, st store.Store, hash, name string, p render.Palette) error {
	if p.IsDefault() {
		return st.Delete(ctx, hash)
	}
	return st.Put(ctx, &store.Record{PatternHash: hash, Name: name, Palette: p})
}

func printPalette(c *CLI, s *render.Session) {
	for _, th := range s.Threads() {
		state := ""
		if !th.Visible {
			state = StyleDim.Render(" hidden")
		}
		choice := ""
		if th.Interpretations > 1 {
			choice = StyleDim.Render(fmt.Sprintf(" [%d/%d]", th.Interpretation+1, th.Interpretations))
		}
		fmt.Fprintf(c.out, "%2d  %s %s%s%s\n", th.Index, swatch(th.Colour), th.Colour.Label(), choice, state)
	}
}
