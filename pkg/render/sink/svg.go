package sink

import (
	"bytes"
	"fmt"
	"html"
)

// RenderSVG renders the scene as an SVG document whose viewBox is the
// viewport.
func RenderSVG(s Scene, opts ...Option) ([]byte, error) {
	c := newConfig(opts)
	bg, err := ParseBackground(c.background)
	if err != nil {
		return nil, err
	}

	vp := c.view(s)
	x, y, w, h := 0, 0, 1, 1
	if !vp.Empty() {
		x, y, w, h = vp.Min.X, vp.Min.Y, vp.Dx()+1, vp.Dy()+1
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%d %d %d %d" width="%d" height="%d">`+"\n",
		x, y, w, h, c.width, c.height)
	fmt.Fprintf(&buf, `  <rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n", x, y, w, h, hexRGBA(bg))

	if !vp.Empty() {
		for _, g := range collect(s, vp) {
			renderPath(&buf, g)
			if c.points {
				renderPoints(&buf, g)
			}
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func renderPath(buf *bytes.Buffer, g *group) {
	fmt.Fprintf(buf, `  <path class="thread" stroke="%s" data-name="%s" fill="none" stroke-width="1" vector-effect="non-scaling-stroke" d="`,
		g.colour.RGB.Hex(), html.EscapeString(g.colour.Label()))
	for i, seg := range g.segments {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(buf, "M%d %dL%d %d", seg.A.X, seg.A.Y, seg.B.X, seg.B.Y)
	}
	buf.WriteString(`"/>` + "\n")
}

func renderPoints(buf *bytes.Buffer, g *group) {
	fmt.Fprintf(buf, `  <g class="points" fill="%s">`+"\n", g.colour.RGB.Hex())
	for _, seg := range g.segments {
		fmt.Fprintf(buf, `    <circle cx="%d" cy="%d" r="1.5"/>`+"\n", seg.B.X, seg.B.Y)
	}
	buf.WriteString("  </g>\n")
}
