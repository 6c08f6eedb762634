package sink

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/vector"

	"github.com/matzehuels/jefview/pkg/colours"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/zone"
)

// Thread width in machine units (0.1 mm) and its pixel limits.
const (
	threadWidth  = 3.0
	minLineWidth = 1.0
	maxLineWidth = 6.0
)

// RenderPNG rasterises the scene, fitting the viewport into the output
// size while keeping its aspect ratio.
func RenderPNG(s Scene, opts ...Option) ([]byte, error) {
	c := newConfig(opts)
	bg, err := ParseBackground(c.background)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	if vp := c.view(s); !vp.Empty() {
		f := newFrame(vp, c.width, c.height)
		z := vector.NewRasterizer(c.width, c.height)
		for _, g := range collect(s, vp) {
			z.Reset(c.width, c.height)
			for _, seg := range g.segments {
				f.line(z, seg)
			}
			z.Draw(img, img.Bounds(), image.NewUniform(g.colour.RGB.RGBA()), image.Point{})

			if c.points {
				z.Reset(c.width, c.height)
				for _, seg := range g.segments {
					f.dot(z, seg.B)
				}
				z.Draw(img, img.Bounds(), image.NewUniform(darken(g.colour.RGB).RGBA()), image.Point{})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// frame maps screen-space coordinates to pixels.
type frame struct {
	origin     zone.Point
	scale      float64
	offX, offY float64
	lineWidth  float64
	w, h       float64
}

func newFrame(vp zone.Rect, width, height int) frame {
	vw, vh := float64(vp.Dx()+1), float64(vp.Dy()+1)
	scale := math.Min(float64(width)/vw, float64(height)/vh)
	return frame{
		origin:    vp.Min,
		scale:     scale,
		offX:      (float64(width) - vw*scale) / 2,
		offY:      (float64(height) - vh*scale) / 2,
		lineWidth: math.Max(minLineWidth, math.Min(maxLineWidth, threadWidth*scale)),
		w:         float64(width),
		h:         float64(height),
	}
}

func (f frame) point(p zone.Point) (float64, float64) {
	return f.offX + (float64(p.X-f.origin.X)+0.5)*f.scale,
		f.offY + (float64(p.Y-f.origin.Y)+0.5)*f.scale
}

// visible reports whether the box around (x0,y0)-(x1,y1) meets the image.
func (f frame) visible(x0, y0, x1, y1 float64) bool {
	m := f.lineWidth
	return math.Max(x0, x1) >= -m && math.Min(x0, x1) <= f.w+m &&
		math.Max(y0, y1) >= -m && math.Min(y0, y1) <= f.h+m
}

// line adds the stroke of seg to z as a quad.
func (f frame) line(z *vector.Rasterizer, seg zone.Segment) {
	x0, y0 := f.point(seg.A)
	x1, y1 := f.point(seg.B)
	if !f.visible(x0, y0, x1, y1) {
		return
	}
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length < 1e-6 {
		f.square(z, x0, y0, f.lineWidth/2)
		return
	}
	nx, ny := -dy/length*f.lineWidth/2, dx/length*f.lineWidth/2
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
}

// dot adds a stitch marker at p.
func (f frame) dot(z *vector.Rasterizer, p zone.Point) {
	x, y := f.point(p)
	if f.visible(x, y, x, y) {
		f.square(z, x, y, f.lineWidth)
	}
}

func (f frame) square(z *vector.Rasterizer, x, y, r float64) {
	z.MoveTo(float32(x-r), float32(y-r))
	z.LineTo(float32(x+r), float32(y-r))
	z.LineTo(float32(x+r), float32(y+r))
	z.LineTo(float32(x-r), float32(y+r))
	z.ClosePath()
}

func darken(c colours.RGB) colours.RGB {
	return colours.RGB{R: c.R / 2, G: c.G / 2, B: c.B / 2}
}
