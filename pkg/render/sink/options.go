package sink

import (
	"image/color"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/matzehuels/jefview/pkg/colours"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/render"
	"github.com/matzehuels/jefview/pkg/zone"
)

// Defaults for output dimensions and background.
const (
	DefaultWidth      = 800
	DefaultHeight     = 600
	DefaultBackground = "white"
)

// Scene is a drawable set of coloured segments.
type Scene interface {
	Bounds() zone.Rect
	Paint(viewport zone.Rect, emit func(colours.Colour, zone.Segment))
}

// threadLister is implemented by scenes that can describe their threads.
type threadLister interface {
	Threads() []render.ThreadInfo
}

// Option configures rendering.
type Option func(*config)

type config struct {
	width, height int
	background    string
	viewport      *zone.Rect
	points        bool
}

// WithSize sets the output size in pixels. Non-positive values keep the
// defaults.
func WithSize(width, height int) Option {
	return func(c *config) {
		if width > 0 {
			c.width = width
		}
		if height > 0 {
			c.height = height
		}
	}
}

// WithBackground sets the background as a CSS colour name or #rrggbb.
func WithBackground(bg string) Option {
	return func(c *config) {
		if bg != "" {
			c.background = bg
		}
	}
}

// WithViewport restricts painting to zones meeting r.
func WithViewport(r zone.Rect) Option {
	return func(c *config) { c.viewport = &r }
}

// WithPoints marks every stitch endpoint.
func WithPoints() Option {
	return func(c *config) { c.points = true }
}

func newConfig(opts []Option) config {
	c := config{width: DefaultWidth, height: DefaultHeight, background: DefaultBackground}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) view(s Scene) zone.Rect {
	if c.viewport != nil {
		return *c.viewport
	}
	return s.Bounds()
}

// ParseBackground resolves a CSS colour name or #rrggbb.
func ParseBackground(s string) (color.RGBA, error) {
	if c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	rgb, err := colours.ParseRGB(s)
	if err != nil {
		return color.RGBA{}, errs.New(errs.ErrCodeInvalidInput, "background %q is neither a colour name nor #rrggbb", s)
	}
	return rgb.RGBA(), nil
}

// group collects segments per colour in first-seen order.
type group struct {
	colour   colours.Colour
	segments []zone.Segment
}

func collect(s Scene, viewport zone.Rect) []*group {
	var groups []*group
	index := map[colours.RGB]*group{}
	s.Paint(viewport, func(c colours.Colour, seg zone.Segment) {
		g, ok := index[c.RGB]
		if !ok {
			g = &group{colour: c}
			index[c.RGB] = g
			groups = append(groups, g)
		}
		g.segments = append(g.segments, seg)
	})
	return groups
}

func hexRGBA(c color.RGBA) string {
	return colours.RGB{R: c.R, G: c.G, B: c.B}.Hex()
}
