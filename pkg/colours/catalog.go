// Package colours resolves JEF internal colour codes to named thread colours.
//
// A JEF file stores one internal colour code per thread. Thread vendors
// publish catalogs of their own codes, and a cross-reference maps internal
// codes into each catalog. Because several vendors may carry an equivalent
// thread, an internal code can have more than one interpretation; they are
// ordered by a fixed namespace priority and the caller picks one by index.
//
// Codes no catalog covers fall back to a table of hand-measured colours.
// Codes missing from both yield an UNKNOWN_COLOUR error, which is
// recoverable: the caller draws the thread with [Sentinel] and carries on.
//
// # Data
//
// [Default] parses the catalog data embedded in the binary. [Load] and
// [LoadFile] read external data in the same TOML layout:
//
//	order = ["Janome Polyester", "Sulky Rayon 40"]
//
//	[[catalog]]
//	thread_type = "Janome Polyester"
//	colours = [{ code = 2, name = "Black", rgb = "#000000" }]
//
//	[[crossref]]
//	thread_type = "Janome Polyester"
//	codes = [{ internal = 0x01, code = 2 }]
//
//	[[measured]]
//	internal = 0x24
//	name = "?"
//	rgb = "#c8a000"
package colours

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	errs "github.com/matzehuels/jefview/pkg/errors"
)

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

// Hex formats the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA returns the opaque image/color equivalent.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// ParseRGB parses "#rrggbb" or "rrggbb".
func ParseRGB(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RGB{}, errs.New(errs.ErrCodeInvalidFormat, "colour %q is not #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "colour %q is not #rrggbb", s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Entry is one catalog colour.
type Entry struct {
	Name string
	RGB  RGB
}

// Catalog is one thread type namespace: vendor code to colour.
type Catalog struct {
	ThreadType string
	Entries    map[int]Entry
}

// Pair maps an internal colour code to a catalog code.
type Pair struct {
	Internal int32
	Code     int
}

// CrossRef maps internal codes into each namespace. Order lists namespaces
// from most to least preferred; namespaces missing from Order are ignored.
type CrossRef struct {
	Order []string
	Pairs map[string][]Pair
}

// Interpretation names one catalog entry an internal code may stand for.
type Interpretation struct {
	ThreadType string
	Code       int
}

// Colour is a resolved thread colour.
type Colour struct {
	Name       string
	RGB        RGB
	ThreadType string // empty for measured colours
	Code       int    // catalog code; zero for measured colours
	Measured   bool
}

// Label is the human-readable form used in listings and legends.
func (c Colour) Label() string {
	switch {
	case c.Measured:
		return c.Name + " (measured)"
	case c.ThreadType == "":
		return c.Name
	default:
		return fmt.Sprintf("%s %d %s", c.ThreadType, c.Code, c.Name)
	}
}

// Sentinel is drawn for threads whose colour cannot be resolved.
var Sentinel = Colour{Name: "unknown", RGB: RGB{}}
