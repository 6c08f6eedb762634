package zone

// Point is a screen-space coordinate. Screen y grows downwards, so
// ScreenPoint negates pattern y.
type Point struct {
	X, Y int
}

// ScreenPoint converts a pattern coordinate to screen space.
func ScreenPoint(x, y int32) Point {
	return Point{X: int(x), Y: -int(y)}
}

// Rect is an axis-aligned rectangle with inclusive bounds. A Rect with Max
// below Min on either axis is empty.
type Rect struct {
	Min, Max Point
}

var emptyRect = Rect{Min: Point{X: 1, Y: 1}}

// R returns the rectangle spanning (x0,y0) and (x1,y1) in any order.
func R(x0, y0, x1, y1 int) Rect {
	return Rect{
		Min: Point{X: min(x0, x1), Y: min(y0, y1)},
		Max: Point{X: max(x0, x1), Y: max(y0, y1)},
	}
}

// XYWH returns the rectangle with top-left corner (x,y) covering w by h
// units. Non-positive sizes give an empty rectangle.
func XYWH(x, y, w, h int) Rect {
	if w <= 0 || h <= 0 {
		return emptyRect
	}
	return Rect{Min: Point{X: x, Y: y}, Max: Point{X: x + w - 1, Y: y + h - 1}}
}

// Empty reports whether r contains no points.
func (r Rect) Empty() bool {
	return r.Max.X < r.Min.X || r.Max.Y < r.Min.Y
}

// Dx returns the horizontal extent, Max.X - Min.X.
func (r Rect) Dx() int { return r.Max.X - r.Min.X }

// Dy returns the vertical extent, Max.Y - Min.Y.
func (r Rect) Dy() int { return r.Max.Y - r.Min.Y }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether r and s share at least one point.
func (r Rect) Intersects(s Rect) bool {
	if r.Empty() || s.Empty() {
		return false
	}
	return r.Min.X <= s.Max.X && s.Min.X <= r.Max.X &&
		r.Min.Y <= s.Max.Y && s.Min.Y <= r.Max.Y
}

// Union returns the smallest rectangle containing r and s.
func (r Rect) Union(s Rect) Rect {
	switch {
	case r.Empty():
		return s
	case s.Empty():
		return r
	}
	return Rect{
		Min: Point{X: min(r.Min.X, s.Min.X), Y: min(r.Min.Y, s.Min.Y)},
		Max: Point{X: max(r.Max.X, s.Max.X), Y: max(r.Max.Y, s.Max.Y)},
	}
}

// quadrants splits r into four non-overlapping rectangles: top-left,
// top-right, bottom-left, bottom-right.
func (r Rect) quadrants() [4]Rect {
	mx := r.Min.X + r.Dx()/2
	my := r.Min.Y + r.Dy()/2
	return [4]Rect{
		{Min: r.Min, Max: Point{X: mx, Y: my}},
		{Min: Point{X: mx + 1, Y: r.Min.Y}, Max: Point{X: r.Max.X, Y: my}},
		{Min: Point{X: r.Min.X, Y: my + 1}, Max: Point{X: mx, Y: r.Max.Y}},
		{Min: Point{X: mx + 1, Y: my + 1}, Max: r.Max},
	}
}

// Segment is one drawn stitch from A to B.
type Segment struct {
	A, B Point
}

// Bounds returns the rectangle spanned by the segment's endpoints.
func (s Segment) Bounds() Rect {
	return R(s.A.X, s.A.Y, s.B.X, s.B.Y)
}
