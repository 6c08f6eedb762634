package jef

import (
	errs "github.com/matzehuels/jefview/pkg/errors"
)

// Control codes: a 0x80 byte followed by one of these.
const (
	ctrlPrefix = 0x80
	ctrlThread = 0x01 // next colour run, two padding bytes follow
	ctrlMove   = 0x02 // next record is a pen-up relocation
	ctrlEnd    = 0x10 // end of stream
)

// runState tracks whether the next coordinate opens a run.
type runState uint8

const (
	awaitingFirstPoint runState = iota
	drawing
)

// position is the absolute pen position carried through the whole stream.
type position struct {
	x, y int32
}

func (p position) add(dx, dy int8) position {
	return position{x: p.x + int32(dx), y: p.y + int32(dy)}
}

// step applies one delta and classifies the resulting coordinate.
func step(pos position, state runState, dx, dy int8) (position, StitchOp, runState) {
	pos = pos.add(dx, dy)
	op := Stitch
	if state == awaitingFirstPoint {
		op = Move
	}
	return pos, StitchOp{Op: op, X: pos.x, Y: pos.y}, drawing
}

// decodeStream splits the stitch stream into colour runs of absolute
// coordinates. The returned slice always has one more run than there are
// thread markers in the consumed part of the stream.
func decodeStream(data []byte) ([][]StitchOp, error) {
	var (
		runs  [][]StitchOp
		run   []StitchOp
		pos   position
		state = awaitingFirstPoint
	)

	for i := 0; i < len(data); {
		if len(data)-i < 2 {
			return nil, errs.New(errs.ErrCodeFormat, "stitch stream ends mid-record at +0x%x", i)
		}
		a, b := data[i], data[i+1]

		if a == ctrlPrefix {
			switch b {
			case ctrlThread:
				if len(data)-i < 4 {
					return nil, errs.New(errs.ErrCodeFormat, "colour change at +0x%x is missing its padding", i)
				}
				runs = append(runs, run)
				run = nil
				state = awaitingFirstPoint
				i += 4
				continue
			case ctrlMove:
				if len(data)-i < 4 {
					return nil, errs.New(errs.ErrCodeFormat, "move at +0x%x has no relocation record", i)
				}
				state = awaitingFirstPoint
				i += 2
				// The relocation is read as a plain delta even if it starts with 0x80.
				a, b = data[i], data[i+1]
			case ctrlEnd:
				return append(runs, run), nil
			}
		}

		var op StitchOp
		pos, op, state = step(pos, state, int8(a), int8(b))
		run = append(run, op)
		i += 2
	}

	return append(runs, run), nil
}
