package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jefview/pkg/jef"
)

// infoCommand creates the info command for inspecting a pattern header.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [file.jef]",
		Short: "Show the header, hoop and stitch counts of a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInfo(withLogger(cmd.Context(), c.Logger), args[0])
		},
	}
}

func (c *CLI) runInfo(ctx context.Context, path string) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	p, err := runner.Load(ctx, path)
	if err != nil {
		return err
	}
	printPatternInfo(c.out, path, p)
	return nil
}

func printPatternInfo(w io.Writer, path string, p *jef.Pattern) {
	fmt.Fprintln(w, StyleTitle.Render(path))

	created := "not recorded"
	if p.Created != nil {
		created = p.Created.Format(time.DateTime)
	}
	hw, hh := p.Hoop.Size()
	moves, stitches := p.Counts()

	printKeyValue(w, "Size", fmt.Sprintf("%d bytes", p.Len()))
	printKeyValue(w, "Created", created)
	printKeyValue(w, "Hoop", fmt.Sprintf("%s (%d×%d mm, code %d)", p.Hoop, hw, hh, p.HoopCode))
	printKeyValue(w, "Threads", fmt.Sprintf("%d", len(p.Threads)))
	printKeyValue(w, "Stitches", fmt.Sprintf("%d stitches, %d moves", stitches, moves))
	if minX, minY, maxX, maxY, ok := p.Bounds(); ok {
		printKeyValue(w, "Extent", fmt.Sprintf("%d,%d to %d,%d", minX, minY, maxX, maxY))
	}
	for i, r := range p.Rects {
		mw, mh := r.Millimetres()
		printKeyValue(w, fmt.Sprintf("Rect %d", i), fmt.Sprintf("%.1f×%.1f mm", mw, mh))
	}
	if !p.DataLengthConsistent() {
		printWarning(w, "declared data length %d does not match the file", p.DeclaredDataLength)
	}

	for i, th := range p.Threads {
		m, s := th.Counts()
		printDetail(w, "thread %d: code 0x%02x, type %d, %d stitches, %d moves", i, th.ColourCode, th.ThreadTypeCode, s, m)
	}
}
