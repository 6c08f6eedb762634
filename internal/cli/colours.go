package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jefview/pkg/colours"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/pipeline"
)

// coloursCommand creates the colours command, which reports how each thread
// colour of a pattern resolves.
func (c *CLI) coloursCommand() *cobra.Command {
	threadType := -1

	cmd := &cobra.Command{
		Use:     "colours [file.jef]",
		Aliases: []string{"colors"},
		Short:   "List thread colours and mark measured or unknown codes",
		Long: `List how every thread colour of a pattern resolves.

Codes found in a manufacturer catalog are shown with their thread type and
catalog code. Codes only known from measured samples are marked (measured).
Codes that resolve nowhere are drawn black and reported as unknown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runColours(withLogger(cmd.Context(), c.Logger), args[0], threadType)
		},
	}

	cmd.Flags().IntVar(&threadType, "thread-type", threadType, "only list threads with this thread type code")

	return cmd
}

func (c *CLI) runColours(ctx context.Context, path string, threadType int) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	p, err := runner.Load(ctx, path)
	if err != nil {
		return err
	}
	s, err := runner.NewSession(ctx, p, pipeline.Options{Logger: c.Logger})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, StyleTitle.Render(path))
	unknown := 0
	for _, th := range s.Threads() {
		if threadType >= 0 && th.ThreadType != int32(threadType) {
			continue
		}
		head := fmt.Sprintf("%2d  0x%02x  %s", th.Index, th.Code, swatch(th.Colour))
		switch {
		case th.Unknown:
			unknown++
			printWarning(c.out, "%2d  0x%02x  unknown colour (%d)", th.Index, th.Code, th.Code)
		case th.Interpretations > 1:
			fmt.Fprintf(c.out, "%s %s %s\n", head, th.Colour.Label(),
				StyleDim.Render(fmt.Sprintf("[%d/%d]", th.Interpretation+1, th.Interpretations)))
		default:
			fmt.Fprintf(c.out, "%s %s\n", head, th.Colour.Label())
		}
	}
	if unknown > 0 {
		printDetail(c.out, "%d thread(s) drawn with the fallback colour", unknown)
	}
	return nil
}

// catalogCommand creates the catalog command for browsing colour codes.
func (c *CLI) catalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [code]",
		Short: "List the catalog interpretations of internal colour codes",
		Long: `List the catalog interpretations of internal colour codes.

Without an argument every known code is listed. Codes may be given in
decimal or with a 0x prefix.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := c.resolver()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				printCatalog(c.out, resolver, allCodes(resolver))
				return nil
			}
			code, err := strconv.ParseInt(args[0], 0, 32)
			if err != nil {
				return errs.New(errs.ErrCodeInvalidInput, "colour code %q is not a number", args[0])
			}
			if !slices.Contains(allCodes(resolver), int32(code)) {
				return errs.New(errs.ErrCodeNotFound, "colour code 0x%02x is not in any catalog", code)
			}
			printCatalog(c.out, resolver, []int32{int32(code)})
			return nil
		},
	}
}

// allCodes merges catalog and measured codes in ascending order.
func allCodes(r *colours.Resolver) []int32 {
	codes := append(r.Codes(), r.MeasuredCodes()...)
	slices.Sort(codes)
	return slices.Compact(codes)
}

func printCatalog(w io.Writer, r *colours.Resolver, codes []int32) {
	for _, code := range codes {
		fmt.Fprintln(w, StyleNumber.Render(fmt.Sprintf("0x%02x", code))+StyleDim.Render(fmt.Sprintf(" (%d)", code)))
		n := max(len(r.Interpretations(code)), 1)
		for pref := range n {
			col, err := r.Resolve(code, pref)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "  %d %s %s %s\n", pref, swatch(col), col.Label(), StyleDim.Render(col.RGB.Hex()))
		}
	}
}
