package jef

// Hoop identifies the embroidery frame a design was laid out for.
type Hoop int

const (
	HoopUnknown Hoop = iota
	HoopA
	HoopB
	HoopC
	HoopD
	HoopF
)

// hoopByCode maps the header's hoop code to the frame letter.
var hoopByCode = map[uint32]Hoop{
	0: HoopD,
	1: HoopB,
	2: HoopC,
	3: HoopA,
	4: HoopF,
}

// hoopSizes holds the frame sizes in millimetres (width, height).
var hoopSizes = map[Hoop][2]int{
	HoopA: {126, 110},
	HoopB: {50, 50},
	HoopC: {140, 200},
	HoopD: {110, 110},
	HoopF: {200, 200},
}

// HoopFromCode returns the hoop for a header hoop code.
// Unrecognised codes yield HoopUnknown.
func HoopFromCode(code uint32) Hoop {
	if h, ok := hoopByCode[code]; ok {
		return h
	}
	return HoopUnknown
}

// Size returns the frame size in millimetres. HoopUnknown is 0×0.
func (h Hoop) Size() (width, height int) {
	s := hoopSizes[h]
	return s[0], s[1]
}

func (h Hoop) String() string {
	switch h {
	case HoopA:
		return "A"
	case HoopB:
		return "B"
	case HoopC:
		return "C"
	case HoopD:
		return "D"
	case HoopF:
		return "F"
	default:
		return "Unknown"
	}
}
