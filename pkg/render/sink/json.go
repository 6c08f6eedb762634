package sink

import (
	"encoding/json"

	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/zone"
)

type jsonOutput struct {
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Bounds   *jsonRect    `json:"bounds,omitempty"`
	Viewport *jsonRect    `json:"viewport,omitempty"`
	Threads  []jsonThread `json:"threads,omitempty"`
	Paths    []jsonPath   `json:"paths"`
}

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonThread struct {
	Index           int    `json:"index"`
	Code            int32  `json:"code"`
	ThreadType      int32  `json:"thread_type"`
	Name            string `json:"name"`
	Colour          string `json:"colour"`
	Catalog         string `json:"catalog,omitempty"`
	CatalogCode     int    `json:"catalog_code,omitempty"`
	Interpretation  int    `json:"interpretation"`
	Interpretations int    `json:"interpretations"`
	Visible         bool   `json:"visible"`
	Measured        bool   `json:"measured,omitempty"`
	Unknown         bool   `json:"unknown,omitempty"`
	Stitches        int    `json:"stitches"`
}

type jsonPath struct {
	Colour   string   `json:"colour"`
	Name     string   `json:"name"`
	Segments [][4]int `json:"segments"`
	Points   [][2]int `json:"points,omitempty"`
}

func toJSONRect(r zone.Rect) *jsonRect {
	if r.Empty() {
		return nil
	}
	return &jsonRect{X: r.Min.X, Y: r.Min.Y, W: r.Dx() + 1, H: r.Dy() + 1}
}

// RenderJSON serialises the painted segments grouped by colour, plus the
// thread table when the scene provides one.
func RenderJSON(s Scene, opts ...Option) ([]byte, error) {
	c := newConfig(opts)
	vp := c.view(s)

	out := jsonOutput{
		Width:    c.width,
		Height:   c.height,
		Bounds:   toJSONRect(s.Bounds()),
		Viewport: toJSONRect(vp),
		Paths:    []jsonPath{},
	}

	if tl, ok := s.(threadLister); ok {
		for _, t := range tl.Threads() {
			out.Threads = append(out.Threads, jsonThread{
				Index:           t.Index,
				Code:            t.Code,
				ThreadType:      t.ThreadType,
				Name:            t.Colour.Name,
				Colour:          t.Colour.RGB.Hex(),
				Catalog:         t.Colour.ThreadType,
				CatalogCode:     t.Colour.Code,
				Interpretation:  t.Interpretation,
				Interpretations: t.Interpretations,
				Visible:         t.Visible,
				Measured:        t.Colour.Measured,
				Unknown:         t.Unknown,
				Stitches:        t.Stitches,
			})
		}
	}

	if !vp.Empty() {
		for _, g := range collect(s, vp) {
			p := jsonPath{
				Colour:   g.colour.RGB.Hex(),
				Name:     g.colour.Label(),
				Segments: make([][4]int, len(g.segments)),
			}
			for i, seg := range g.segments {
				p.Segments[i] = [4]int{seg.A.X, seg.A.Y, seg.B.X, seg.B.Y}
				if c.points {
					p.Points = append(p.Points, [2]int{seg.B.X, seg.B.Y})
				}
			}
			out.Paths = append(out.Paths, p)
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode json")
	}
	return data, nil
}
