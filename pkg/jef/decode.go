package jef

import (
	"bytes"
	"encoding/binary"
	"os"
	"time"

	errs "github.com/matzehuels/jefview/pkg/errors"
)

// Header field offsets.
const (
	offStart      = 0x00
	offFlags      = 0x04
	offTimestamp  = 0x08
	offThreads    = 0x18
	offDataLength = 0x1C
	offHoop       = 0x20
	offRects      = 0x24
	offColours    = 0x74

	headerSize   = offColours
	timestampLen = 14
	rectCount    = 5
	rectSize     = 16

	flagTimestamp   = 1 << 0
	timestampLayout = "20060102150405"
)

var le = binary.LittleEndian

// rectAbsent is the all-ones quad marking an unused rectangle slot.
var rectAbsent = bytes.Repeat([]byte{0xFF}, rectSize)

// ReadFile reads and decodes the pattern at path.
func ReadFile(path string) (*Pattern, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "read %s", path)
	}
	return Decode(data)
}

// Decode parses a JEF file held entirely in memory.
//
// It fails with an ErrCodeFormat error when the data is shorter than the
// fixed header, when the colour table or stitch data offset fall outside the
// file, or when the stitch stream is truncated mid-record. The returned
// Pattern keeps its own copy of data.
func Decode(data []byte) (*Pattern, error) {
	if len(data) < headerSize {
		return nil, errs.New(errs.ErrCodeFormat, "file is %d bytes, shorter than the %d-byte header", len(data), headerSize)
	}

	p := &Pattern{
		StitchDataOffset:   le.Uint32(data[offStart:]),
		ThreadCount:        le.Uint32(data[offThreads:]),
		DeclaredDataLength: le.Uint32(data[offDataLength:]),
		HoopCode:           le.Uint32(data[offHoop:]),
		raw:                bytes.Clone(data),
	}
	p.Hoop = HoopFromCode(p.HoopCode)

	if le.Uint32(data[offFlags:])&flagTimestamp != 0 {
		created, err := parseTimestamp(data[offTimestamp : offTimestamp+timestampLen])
		if err != nil {
			return nil, err
		}
		p.Created = &created
	}

	p.Rects = readRects(data[offRects:offColours])

	tableEnd := uint64(offColours) + 8*uint64(p.ThreadCount)
	if tableEnd > uint64(len(data)) {
		return nil, errs.New(errs.ErrCodeFormat, "colour table for %d threads ends at 0x%x, past end of file (0x%x)", p.ThreadCount, tableEnd, len(data))
	}
	start := uint64(p.StitchDataOffset)
	if start < tableEnd {
		return nil, errs.New(errs.ErrCodeFormat, "stitch data offset 0x%x lies inside the colour table (ends 0x%x)", start, tableEnd)
	}
	if start > uint64(len(data)) {
		return nil, errs.New(errs.ErrCodeFormat, "stitch data offset 0x%x beyond end of file (0x%x)", start, len(data))
	}

	p.Threads = readColourTable(data, int(p.ThreadCount))

	runs, err := decodeStream(data[start:])
	if err != nil {
		return nil, err
	}
	if err := assignRuns(p.Threads, runs); err != nil {
		return nil, err
	}
	return p, nil
}

func parseTimestamp(raw []byte) (time.Time, error) {
	t, err := time.Parse(timestampLayout, string(raw))
	if err != nil {
		return time.Time{}, errs.Wrap(errs.ErrCodeFormat, err, "timestamp flag set but %q is not YYYYMMDDhhmmss", raw)
	}
	return t, nil
}

func readRects(region []byte) []Rect {
	var rects []Rect
	for i := 0; i < rectCount; i++ {
		quad := region[i*rectSize : (i+1)*rectSize]
		if bytes.Equal(quad, rectAbsent) {
			continue
		}
		rects = append(rects, Rect{
			X1: int32(le.Uint32(quad[0:])),
			Y1: int32(le.Uint32(quad[4:])),
			X2: int32(le.Uint32(quad[8:])),
			Y2: int32(le.Uint32(quad[12:])),
		})
	}
	return rects
}

// readColourTable reads n colour codes followed by n thread type codes.
// The caller has already checked that both arrays fit.
func readColourTable(data []byte, n int) []Thread {
	threads := make([]Thread, n)
	types := offColours + 4*n
	for i := range threads {
		threads[i].ColourCode = int32(le.Uint32(data[offColours+4*i:]))
		threads[i].ThreadTypeCode = int32(le.Uint32(data[types+4*i:]))
	}
	return threads
}

// assignRuns hands decoded colour runs to threads in order. Empty trailing
// runs (the flush at end of stream) are dropped; stitches beyond the
// declared thread count are a format error rather than silently lost.
func assignRuns(threads []Thread, runs [][]StitchOp) error {
	for i, run := range runs {
		if i < len(threads) {
			threads[i].Stitches = run
			continue
		}
		if len(run) > 0 {
			return errs.New(errs.ErrCodeFormat, "stitch stream holds colour run %d but the header declares %d threads", i+1, len(threads))
		}
	}
	return nil
}

// colourOffset is the byte offset of a thread's colour code.
func colourOffset(thread int) int {
	return offColours + 4*thread
}
