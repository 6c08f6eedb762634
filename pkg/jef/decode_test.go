package jef

import (
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	errs "github.com/matzehuels/jefview/pkg/errors"
)

func TestDecodeEmptyPattern(t *testing.T) {
	data := make([]byte, headerSize)
	data[0] = 0x74
	data = append(data, endMark...)

	p, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.ThreadCount != 0 {
		t.Errorf("ThreadCount = %d, want 0", p.ThreadCount)
	}
	if len(p.Threads) != 0 {
		t.Errorf("Threads = %v, want none", p.Threads)
	}
	if p.Created != nil {
		t.Errorf("Created = %v, want nil without the flag", p.Created)
	}
}

func TestDecodeHeader(t *testing.T) {
	f := fixture{
		flags:     flagTimestamp,
		timestamp: "20240315093005",
		hoop:      2,
		rects:     []Rect{{X1: -250, Y1: -300, X2: 250, Y2: 300}},
		colours:   []int32{0x0a, 0x3c},
		types:     []int32{13, 13},
		stream:    join(moveMark, d(0, 0), d(10, 0), threadMark, d(0, 10), endMark),
	}

	p, err := Decode(f.build())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := time.Date(2024, 3, 15, 9, 30, 5, 0, time.UTC)
	if p.Created == nil || !p.Created.Equal(want) {
		t.Errorf("Created = %v, want %v", p.Created, want)
	}
	if p.Hoop != HoopC {
		t.Errorf("Hoop = %v, want C", p.Hoop)
	}
	if w, h := p.Hoop.Size(); w != 140 || h != 200 {
		t.Errorf("Hoop.Size() = %dx%d, want 140x200", w, h)
	}
	if len(p.Rects) != 1 || p.Rects[0] != f.rects[0] {
		t.Errorf("Rects = %v, want only %v", p.Rects, f.rects[0])
	}
	if w, h := p.Rects[0].Millimetres(); w != 100 || h != 120 {
		t.Errorf("Millimetres() = %vx%v, want 100x120", w, h)
	}
	if !p.DataLengthConsistent() {
		t.Error("DataLengthConsistent() = false, want true")
	}
	if p.Threads[1].ColourCode != 0x3c || p.Threads[1].ThreadTypeCode != 13 {
		t.Errorf("thread 1 codes = %d/%d", p.Threads[1].ColourCode, p.Threads[1].ThreadTypeCode)
	}
	if x0, y0, x1, y1, ok := p.Bounds(); !ok || x0 != 0 || y0 != 0 || x1 != 10 || y1 != 10 {
		t.Errorf("Bounds() = %d,%d %d,%d %v, want 0,0 10,10", x0, y0, x1, y1, ok)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := fixture{colours: []int32{1}, stream: join(d(1, 1), endMark)}

	tests := []struct {
		name string
		data func() []byte
	}{
		{"short header", func() []byte { return make([]byte, 10) }},
		{"offset beyond end", func() []byte {
			b := valid.build()
			le.PutUint32(b[offStart:], uint32(len(b)+1))
			return b
		}},
		{"offset inside colour table", func() []byte {
			b := valid.build()
			le.PutUint32(b[offStart:], offColours+4)
			return b
		}},
		{"colour table past end", func() []byte {
			b := valid.build()
			le.PutUint32(b[offThreads:], 1<<30)
			return b
		}},
		{"bad timestamp", func() []byte {
			f := valid
			f.flags = flagTimestamp
			f.timestamp = "not-a-date!!!!"
			return f.build()
		}},
		{"dangling byte", func() []byte {
			f := valid
			f.stream = []byte{0x01, 0x01, 0x02}
			return f.build()
		}},
		{"move without relocation", func() []byte {
			f := valid
			f.stream = join(d(1, 1), moveMark)
			return f.build()
		}},
		{"colour change without padding", func() []byte {
			f := valid
			f.stream = join(d(1, 1), []byte{ctrlPrefix, ctrlThread})
			return f.build()
		}},
		{"more runs than threads", func() []byte {
			f := valid
			f.stream = join(d(1, 1), threadMark, d(2, 2), endMark)
			return f.build()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data())
			if !errs.Is(err, errs.ErrCodeFormat) {
				t.Errorf("Decode error = %v, want %s", err, errs.ErrCodeFormat)
			}
		})
	}
}

func TestDecodeClassifiesRuns(t *testing.T) {
	f := fixture{
		colours: []int32{1, 2},
		stream: join(
			moveMark, d(10, 10),
			d(5, 0), d(5, 0),
			threadMark,
			d(1, 1), d(1, 1),
			endMark,
		),
	}

	p, err := Decode(f.build())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := [][]StitchOp{
		{{Move, 10, 10}, {Stitch, 15, 10}, {Stitch, 20, 10}},
		{{Move, 21, 11}, {Stitch, 22, 12}},
	}
	for i, w := range want {
		if !reflect.DeepEqual(p.Threads[i].Stitches, w) {
			t.Errorf("thread %d = %v, want %v", i, p.Threads[i].Stitches, w)
		}
	}
}

func TestDecodeMoveInsideRun(t *testing.T) {
	f := fixture{
		colours: []int32{1},
		stream:  join(d(1, 0), d(1, 0), moveMark, d(20, 0), d(1, 0), endMark),
	}

	p, err := Decode(f.build())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := []StitchOp{{Move, 1, 0}, {Stitch, 2, 0}, {Move, 22, 0}, {Stitch, 23, 0}}
	if !reflect.DeepEqual(p.Threads[0].Stitches, want) {
		t.Errorf("stitches = %v, want %v", p.Threads[0].Stitches, want)
	}
}

func TestDecodeAdjacentMarkers(t *testing.T) {
	// A thread change followed by a relocation opens the next run with a
	// single pen-up point at the relocated position.
	f := fixture{
		colours: []int32{1, 2, 3},
		stream: join(
			d(5, 5), d(5, 0),
			threadMark, d(10, 10),
			threadMark, moveMark, d(50, 0), d(1, 1),
			endMark,
		),
	}

	p, err := Decode(f.build())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := [][]StitchOp{
		{{Move, 5, 5}, {Stitch, 10, 5}},
		{{Move, 20, 15}},
		{{Move, 70, 15}, {Stitch, 71, 16}},
	}
	for i, w := range want {
		if !reflect.DeepEqual(p.Threads[i].Stitches, w) {
			t.Errorf("thread %d = %v, want %v", i, p.Threads[i].Stitches, w)
		}
	}
	if moves, _ := p.Threads[2].Counts(); moves != 1 {
		t.Errorf("thread 2 has %d moves, want 1", moves)
	}
}

func TestDecodePositionCarriesAcrossThreads(t *testing.T) {
	f := fixture{
		colours: []int32{1, 2},
		stream:  join(d(100, -50), d(20, 20), threadMark, d(-120, 30), endMark),
	}

	p, err := Decode(f.build())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// The second thread starts from (120, -30), not from the origin.
	got := p.Threads[1].Stitches[0]
	if got != (StitchOp{Move, 0, 0}) {
		t.Errorf("first op of thread 1 = %v, want move to (0,0)", got)
	}
}

func TestDecodeRelocationLooksLikeControl(t *testing.T) {
	// 80 02 80 01: the relocation delta is (-128, 1), not a colour change.
	f := fixture{
		colours: []int32{1},
		stream:  join(moveMark, []byte{0x80, 0x01}, d(1, 1), endMark),
	}

	p, err := Decode(f.build())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := []StitchOp{{Move, -128, 1}, {Stitch, -127, 2}}
	if !reflect.DeepEqual(p.Threads[0].Stitches, want) {
		t.Errorf("stitches = %v, want %v", p.Threads[0].Stitches, want)
	}
}

func TestDecodeWithoutEndMarker(t *testing.T) {
	f := fixture{colours: []int32{1}, stream: join(d(3, 4), d(1, 1))}

	p, err := Decode(f.build())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n := len(p.Threads[0].Stitches); n != 2 {
		t.Errorf("stitches = %d, want 2", n)
	}
}

func TestMoveCountMatchesMarkers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	delta := func() []byte { return d(int8(rng.Intn(201)-100), int8(rng.Intn(201)-100)) }

	const threads = 6
	stream := join(moveMark, delta())
	markers := 1
	started := 1

	for i := 0; i < 400; i++ {
		switch r := rng.Intn(20); {
		case r == 0:
			stream = join(stream, moveMark, delta())
			markers++
		case r == 1 && started < threads:
			stream = join(stream, threadMark, delta())
			markers++
			started++
		default:
			stream = join(stream, delta())
		}
	}
	stream = join(stream, endMark)

	colours := make([]int32, threads)
	p, err := Decode(fixture{colours: colours, stream: stream}.build())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	moves, _ := p.Counts()
	if moves != markers {
		t.Errorf("moves = %d, want %d (one per marker)", moves, markers)
	}
	for i, th := range p.Threads[:started] {
		if len(th.Stitches) == 0 || th.Stitches[0].Op != Move {
			t.Errorf("thread %d does not open with a move", i)
		}
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jef")
	if err := os.WriteFile(path, fixture{colours: []int32{1}, stream: join(d(1, 1), endMark)}.build(), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadFile(path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.jef")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want %s", err, errs.ErrCodeFileNotFound)
	}
}

func TestHoopFromCode(t *testing.T) {
	tests := []struct {
		code uint32
		want Hoop
	}{
		{0, HoopD},
		{1, HoopB},
		{2, HoopC},
		{3, HoopA},
		{4, HoopF},
		{9, HoopUnknown},
	}
	for _, tt := range tests {
		if got := HoopFromCode(tt.code); got != tt.want {
			t.Errorf("HoopFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if w, h := HoopUnknown.Size(); w != 0 || h != 0 {
		t.Errorf("HoopUnknown.Size() = %dx%d", w, h)
	}
}
