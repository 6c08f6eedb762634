// Package zone indexes stitch segments in a quadtree for viewport culling.
//
// [Build] turns decoded threads into screen-space segments and partitions
// them recursively. A node stops splitting once half its width or height
// drops below [MinHalfSize] or it holds at most [MaxLeafSegments] segments.
// Otherwise each segment moves to the first quadrant that contains both of
// its endpoints; segments crossing a split line stay where they are, and
// quadrants that receive nothing are dropped.
//
// Culling is per node, not per segment. [Tree.PaintWithin] emits every
// segment stored in a node whose box meets the viewport, so segments near
// a split line may be emitted even when they lie outside the viewport.
//
// Colours are looked up through a [ColourFunc] while painting. Changing a
// thread's colour or visibility never requires rebuilding the tree.
package zone

import (
	"github.com/matzehuels/jefview/pkg/colours"
	"github.com/matzehuels/jefview/pkg/jef"
)

// Partition thresholds.
const (
	MinHalfSize     = 100
	MaxLeafSegments = 10
)

// ColourFunc returns the colour for a thread. ok=false hides the thread.
type ColourFunc func(thread int) (c colours.Colour, ok bool)

// Entry is a segment tagged with the index of the thread that stitched it.
type Entry struct {
	Thread  int
	Segment Segment
}

// Node is one zone. Children index into Tree.Nodes.
type Node struct {
	Box      Rect
	Entries  []Entry
	Children []int
}

// Tree is an arena of zones with the root at index 0.
type Tree struct {
	Nodes []Node

	colourFor ColourFunc
}

// Build indexes the stitched segments of threads. Move ops only set the
// origin of the next segment; every Stitch op draws from the previous point.
// A nil colourFor paints everything with [colours.Sentinel].
func Build(threads []jef.Thread, colourFor ColourFunc) *Tree {
	box := emptyRect
	var entries []Entry
	for i, th := range threads {
		var prev Point
		started := false
		for _, op := range th.Stitches {
			p := ScreenPoint(op.X, op.Y)
			box = box.Union(Rect{Min: p, Max: p})
			if op.Op == jef.Stitch && started {
				entries = append(entries, Entry{Thread: i, Segment: Segment{A: prev, B: p}})
			}
			prev, started = p, true
		}
	}

	t := &Tree{
		Nodes:     []Node{{Box: box, Entries: entries}},
		colourFor: colourFor,
	}
	t.partition(0)
	return t
}

func (t *Tree) partition(idx int) {
	box := t.Nodes[idx].Box
	entries := t.Nodes[idx].Entries
	if box.Dx()/2 < MinHalfSize || box.Dy()/2 < MinHalfSize || len(entries) <= MaxLeafSegments {
		return
	}

	quads := box.quadrants()
	var assigned [4][]Entry
	kept := make([]Entry, 0, len(entries))
next:
	for _, e := range entries {
		for q := range quads {
			if quads[q].Contains(e.Segment.A) && quads[q].Contains(e.Segment.B) {
				assigned[q] = append(assigned[q], e)
				continue next
			}
		}
		kept = append(kept, e)
	}
	t.Nodes[idx].Entries = kept

	for q := range quads {
		if len(assigned[q]) == 0 {
			continue
		}
		child := len(t.Nodes)
		t.Nodes = append(t.Nodes, Node{Box: quads[q], Entries: assigned[q]})
		t.Nodes[idx].Children = append(t.Nodes[idx].Children, child)
		t.partition(child)
	}
}

// Visit calls fn for every entry stored in a node whose box intersects
// viewport, parents before children.
func (t *Tree) Visit(viewport Rect, fn func(Entry)) {
	if len(t.Nodes) == 0 {
		return
	}
	t.visit(0, viewport, fn)
}

func (t *Tree) visit(idx int, viewport Rect, fn func(Entry)) {
	n := &t.Nodes[idx]
	if !n.Box.Intersects(viewport) {
		return
	}
	for _, e := range n.Entries {
		fn(e)
	}
	for _, c := range n.Children {
		t.visit(c, viewport, fn)
	}
}

// PaintWithin emits the visible segments of every zone that intersects
// viewport together with their current colour.
func (t *Tree) PaintWithin(viewport Rect, emit func(colours.Colour, Segment)) {
	t.Visit(viewport, func(e Entry) {
		c, ok := t.colour(e.Thread)
		if ok {
			emit(c, e.Segment)
		}
	})
}

func (t *Tree) colour(thread int) (colours.Colour, bool) {
	if t.colourFor == nil {
		return colours.Sentinel, true
	}
	return t.colourFor(thread)
}

// Bounds returns the root box. It is empty when nothing was stitched and
// no points were seen.
func (t *Tree) Bounds() Rect {
	if len(t.Nodes) == 0 {
		return emptyRect
	}
	return t.Nodes[0].Box
}

// Len returns the number of indexed segments.
func (t *Tree) Len() int {
	n := 0
	for i := range t.Nodes {
		n += len(t.Nodes[i].Entries)
	}
	return n
}

// Depth returns the number of levels, 1 for an unsplit root.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	return t.depth(0)
}

func (t *Tree) depth(idx int) int {
	d := 0
	for _, c := range t.Nodes[idx].Children {
		d = max(d, t.depth(c))
	}
	return d + 1
}
