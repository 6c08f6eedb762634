package jef

import (
	"bytes"
	"time"
)

// Op tags a stitch coordinate as a pen-up origin or a drawn stitch.
type Op uint8

const (
	// Move starts a new run without drawing.
	Move Op = iota
	// Stitch draws a line from the previous coordinate.
	Stitch
)

func (o Op) String() string {
	if o == Move {
		return "move"
	}
	return "stitch"
}

// StitchOp is one absolute coordinate in machine units.
type StitchOp struct {
	Op Op
	X  int32
	Y  int32
}

// Thread is one colour run of the design.
type Thread struct {
	ColourCode     int32 // internal colour identifier, resolved via catalogs
	ThreadTypeCode int32
	Stitches       []StitchOp
}

// Counts returns the number of Move and Stitch ops in the thread.
func (t Thread) Counts() (moves, stitches int) {
	for _, s := range t.Stitches {
		if s.Op == Move {
			moves++
		} else {
			stitches++
		}
	}
	return moves, stitches
}

// Rect is a design rectangle from the header, in 0.2 mm units.
type Rect struct {
	X1, Y1, X2, Y2 int32
}

// Millimetres returns the rectangle's width and height in millimetres.
func (r Rect) Millimetres() (width, height float64) {
	return float64(abs32(r.X2-r.X1)) * 0.2, float64(abs32(r.Y2-r.Y1)) * 0.2
}

// Pattern is a decoded JEF file.
type Pattern struct {
	StitchDataOffset   uint32
	Created            *time.Time // nil unless the timestamp flag is set
	ThreadCount        uint32
	DeclaredDataLength uint32
	HoopCode           uint32
	Hoop               Hoop
	Rects              []Rect // present rectangles only, in header order
	Threads            []Thread

	raw []byte
}

// Bytes returns a copy of the file content including any colour patches.
func (p *Pattern) Bytes() []byte {
	return bytes.Clone(p.raw)
}

// Len returns the size of the underlying file in bytes.
func (p *Pattern) Len() int {
	return len(p.raw)
}

// DataLengthConsistent reports whether the declared data length matches the
// number of bytes after the stitch data offset. Decoding never relies on it.
func (p *Pattern) DataLengthConsistent() bool {
	return uint64(p.DeclaredDataLength) == uint64(len(p.raw))-uint64(p.StitchDataOffset)
}

// Counts sums Move and Stitch ops over every thread.
func (p *Pattern) Counts() (moves, stitches int) {
	for _, t := range p.Threads {
		m, s := t.Counts()
		moves += m
		stitches += s
	}
	return moves, stitches
}

// Bounds returns the smallest and largest stitch coordinates in pattern
// space. ok is false for a pattern without stitches.
func (p *Pattern) Bounds() (minX, minY, maxX, maxY int32, ok bool) {
	for _, t := range p.Threads {
		for _, s := range t.Stitches {
			if !ok {
				minX, minY, maxX, maxY, ok = s.X, s.Y, s.X, s.Y, true
				continue
			}
			minX, maxX = min(minX, s.X), max(maxX, s.X)
			minY, maxY = min(minY, s.Y), max(maxY, s.Y)
		}
	}
	return minX, minY, maxX, maxY, ok
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
