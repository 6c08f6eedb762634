// Package jeftest builds synthetic JEF files for tests.
package jeftest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

const (
	colourTable = 0x74
	rectsAt     = 0x24
	rectSlots   = 5
)

// Run is one colour run. The first point is reached with a pen-up move;
// every later point is stitched.
type Run struct {
	Colour int32
	Points [][2]int32
}

// Build encodes runs as a complete JEF file with the given hoop code.
// Deltas beyond the int8 range are split into several records.
func Build(hoop uint32, runs ...Run) []byte {
	n := len(runs)
	start := colourTable + 8*n
	buf := make([]byte, start)
	le := binary.LittleEndian

	var stream []byte
	var x, y int32
	for i, r := range runs {
		if i > 0 {
			stream = append(stream, 0x80, 0x01, 0x00, 0x00)
		}
		for j, p := range r.Points {
			if j == 0 {
				// At least one relocation, even when already in place.
				for {
					dx, dy := clamp(p[0]-x), clamp(p[1]-y)
					stream = append(stream, 0x80, 0x02, byte(dx), byte(dy))
					x, y = x+int32(dx), y+int32(dy)
					if x == p[0] && y == p[1] {
						break
					}
				}
				continue
			}
			for x != p[0] || y != p[1] {
				dx, dy := clamp(p[0]-x), clamp(p[1]-y)
				stream = append(stream, byte(dx), byte(dy))
				x, y = x+int32(dx), y+int32(dy)
			}
		}
	}
	stream = append(stream, 0x80, 0x10)

	le.PutUint32(buf[0x00:], uint32(start))
	le.PutUint32(buf[0x18:], uint32(n))
	le.PutUint32(buf[0x1c:], uint32(len(stream)))
	le.PutUint32(buf[0x20:], hoop)
	for i := range rectSlots {
		for k := range 16 {
			buf[rectsAt+16*i+k] = 0xff
		}
	}
	for i, r := range runs {
		le.PutUint32(buf[colourTable+4*i:], uint32(r.Colour))
		le.PutUint32(buf[colourTable+4*n+4*i:], 13)
	}
	return append(buf, stream...)
}

func clamp(v int32) int8 {
	return int8(max(-127, min(127, v)))
}

// Square returns a run that moves to (x, y) and stitches a closed square
// with the given side, in steps of at most 100 units.
func Square(colour, x, y, side int32) Run {
	r := Run{Colour: colour, Points: [][2]int32{{x, y}}}
	corners := [][2]int32{{x + side, y}, {x + side, y + side}, {x, y + side}, {x, y}}
	cur := [2]int32{x, y}
	for _, c := range corners {
		for cur != c {
			cur[0] += max(-100, min(100, c[0]-cur[0]))
			cur[1] += max(-100, min(100, c[1]-cur[1]))
			r.Points = append(r.Points, cur)
		}
	}
	return r
}

// WriteFile writes data to name inside a fresh temporary directory and
// returns the path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
