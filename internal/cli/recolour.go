package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/pipeline"
)

// recolourCommand creates the recolour command, which patches one thread's
// colour code and saves the pattern.
func (c *CLI) recolourCommand() *cobra.Command {
	var (
		thread int
		code   string
		output string
	)

	cmd := &cobra.Command{
		Use:     "recolour [file.jef]",
		Aliases: []string{"recolor"},
		Short:   "Change a thread's colour code and save the pattern",
		Long: `Change a thread's colour code and save the pattern.

Only the four bytes of that thread's colour table entry change. The file is
written atomically, so a failed save leaves the original untouched. Without
--output the input file is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(code, 0, 32)
			if err != nil {
				return errs.New(errs.ErrCodeInvalidInput, "colour code %q is not a number", code)
			}
			if output == "" {
				output = args[0]
			}
			return c.runRecolour(withLogger(cmd.Context(), c.Logger), args[0], output, thread, int32(n))
		},
	}

	cmd.Flags().IntVar(&thread, "thread", 0, "thread index")
	cmd.Flags().StringVar(&code, "code", "", "new internal colour code (decimal or 0x hex)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func (c *CLI) runRecolour(ctx context.Context, input, output string, thread int, code int32) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	p, err := runner.Load(ctx, input)
	if err != nil {
		return err
	}
	s, err := runner.NewSession(ctx, p, pipeline.Options{Logger: c.Logger})
	if err != nil {
		return err
	}
	if err := s.SetColour(thread, code); err != nil {
		return err
	}
	if err := p.Save(output); err != nil {
		return err
	}

	col, _ := s.Colour(thread)
	printSuccess(c.out, "Thread %d is now 0x%02x %s %s", thread, code, swatch(col), col.Label())
	printFile(c.out, output)
	return nil
}
