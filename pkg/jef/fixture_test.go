package jef

// fixture assembles a synthetic JEF file for tests.
type fixture struct {
	flags     uint32
	timestamp string
	hoop      uint32
	rects     []Rect // slots past len(rects) are written as absent
	colours   []int32
	types     []int32
	stream    []byte
}

func (f fixture) build() []byte {
	n := len(f.colours)
	start := offColours + 8*n
	buf := make([]byte, start, start+len(f.stream))

	le.PutUint32(buf[offStart:], uint32(start))
	le.PutUint32(buf[offFlags:], f.flags)
	copy(buf[offTimestamp:offTimestamp+timestampLen], f.timestamp)
	le.PutUint32(buf[offThreads:], uint32(n))
	le.PutUint32(buf[offDataLength:], uint32(len(f.stream)))
	le.PutUint32(buf[offHoop:], f.hoop)

	for i := 0; i < rectCount; i++ {
		slot := buf[offRects+i*rectSize : offRects+(i+1)*rectSize]
		if i >= len(f.rects) {
			copy(slot, rectAbsent)
			continue
		}
		r := f.rects[i]
		le.PutUint32(slot[0:], uint32(r.X1))
		le.PutUint32(slot[4:], uint32(r.Y1))
		le.PutUint32(slot[8:], uint32(r.X2))
		le.PutUint32(slot[12:], uint32(r.Y2))
	}

	for i, c := range f.colours {
		le.PutUint32(buf[offColours+4*i:], uint32(c))
		var tt int32
		if i < len(f.types) {
			tt = f.types[i]
		}
		le.PutUint32(buf[offColours+4*n+4*i:], uint32(tt))
	}

	return append(buf, f.stream...)
}

var (
	threadMark = []byte{ctrlPrefix, ctrlThread, 0x00, 0x00}
	moveMark   = []byte{ctrlPrefix, ctrlMove}
	endMark    = []byte{ctrlPrefix, ctrlEnd}
)

// d encodes one delta record.
func d(dx, dy int8) []byte {
	return []byte{byte(dx), byte(dy)}
}

func join(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
