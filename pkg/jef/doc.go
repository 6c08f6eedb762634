// Package jef decodes Janome JEF embroidery pattern files.
//
// # Overview
//
// A JEF file is a fixed little-endian header followed by a colour table and a
// stream of two-byte stitch records. [Decode] turns the raw bytes into a
// [Pattern]: header metadata, the hoop, the design rectangles, and one
// [Thread] per colour change holding its absolute stitch coordinates.
//
// # Header Layout
//
//	0x00  u32   offset of the stitch stream
//	0x04  u32   flags (bit 0: timestamp present)
//	0x08  [14]  timestamp, ASCII YYYYMMDDhhmmss
//	0x18  u32   thread count
//	0x1C  u32   declared stitch data length
//	0x20  u32   hoop code
//	0x24  5×16  design rectangles (x1, y1, x2, y2 as i32, 0.2 mm units)
//	0x74  i32×n colour codes, then i32×n thread type codes
//
// # Stitch Stream
//
// Every record is either a control code or a signed (dx, dy) delta:
//
//	80 01 xx xx   end the current colour run, skip two padding bytes
//	80 02 dx dy   pen-up relocation; its coordinate opens the next run
//	80 10         end of stream
//
// The running position starts at (0, 0) and carries across colour runs.
// The first coordinate of each run is a [Move]; every later one is a
// [Stitch] drawn from the previous coordinate.
//
// # Patching
//
// A decoded [Pattern] keeps the original bytes. [Pattern.SetColour] rewrites
// a single colour table entry in place and [Pattern.Save] writes the patched
// buffer atomically, so fields this package does not understand survive
// byte for byte.
package jef
