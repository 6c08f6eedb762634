package colours

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/matzehuels/jefview/pkg/cache"
	errs "github.com/matzehuels/jefview/pkg/errors"
)

// Resolver maps internal colour codes to catalog colours. It is immutable
// after construction and safe for concurrent use.
type Resolver struct {
	catalogs map[string]Catalog // keyed by folded thread type
	interps  map[int32][]Interpretation
	measured map[int32]Entry
	digest   string
}

// NewResolver builds the interpretation lists once. For each namespace in
// priority order, each cross-reference pair whose catalog entry exists adds
// an interpretation to its internal code. A namespace contributes at most
// one interpretation per internal code; later pairs for the same code are
// ignored.
func NewResolver(catalogs []Catalog, xref CrossRef, measured map[int32]Entry) *Resolver {
	fold := cases.Fold()
	r := &Resolver{
		catalogs: make(map[string]Catalog, len(catalogs)),
		interps:  make(map[int32][]Interpretation),
		measured: maps.Clone(measured),
	}
	if r.measured == nil {
		r.measured = map[int32]Entry{}
	}
	for _, c := range catalogs {
		r.catalogs[fold.String(c.ThreadType)] = c
	}

	pairs := make(map[string][]Pair, len(xref.Pairs))
	for _, ns := range slices.Sorted(maps.Keys(xref.Pairs)) {
		key := fold.String(ns)
		pairs[key] = append(pairs[key], xref.Pairs[ns]...)
	}

	seen := map[string]bool{}
	for _, ns := range xref.Order {
		key := fold.String(ns)
		if seen[key] {
			continue
		}
		seen[key] = true
		cat, ok := r.catalogs[key]
		if !ok {
			continue
		}
		mapped := map[int32]bool{}
		for _, p := range pairs[key] {
			if _, ok := cat.Entries[p.Code]; !ok || mapped[p.Internal] {
				continue
			}
			mapped[p.Internal] = true
			r.interps[p.Internal] = append(r.interps[p.Internal], Interpretation{ThreadType: cat.ThreadType, Code: p.Code})
		}
	}
	r.digest = r.fingerprint()
	return r
}

// Fingerprint identifies what the resolver returns. Two resolvers with the
// same fingerprint resolve every code and preference to the same colour.
func (r *Resolver) Fingerprint() string {
	return r.digest
}

func (r *Resolver) fingerprint() string {
	var b strings.Builder
	for _, code := range r.Codes() {
		for _, in := range r.interps[code] {
			e := r.catalogs[cases.Fold().String(in.ThreadType)].Entries[in.Code]
			fmt.Fprintf(&b, "%d\t%s\t%d\t%s\t%s\n", code, in.ThreadType, in.Code, e.Name, e.RGB.Hex())
		}
	}
	for _, code := range r.MeasuredCodes() {
		e := r.measured[code]
		fmt.Fprintf(&b, "%d\tmeasured\t%s\t%s\n", code, e.Name, e.RGB.Hex())
	}
	return cache.Hash([]byte(b.String()))
}

// Resolve returns the colour for an internal code. pref selects among the
// code's interpretations. Without any interpretation the measured table is
// consulted; a miss there returns Sentinel with an UNKNOWN_COLOUR error.
func (r *Resolver) Resolve(code int32, pref int) (Colour, error) {
	if list := r.interps[code]; len(list) > 0 {
		if pref < 0 || pref >= len(list) {
			return Colour{}, errs.New(errs.ErrCodeInvalidInput,
				"colour 0x%02x has %d interpretations, %d requested", code, len(list), pref)
		}
		in := list[pref]
		e := r.catalogs[cases.Fold().String(in.ThreadType)].Entries[in.Code]
		return Colour{Name: e.Name, RGB: e.RGB, ThreadType: in.ThreadType, Code: in.Code}, nil
	}
	if e, ok := r.measured[code]; ok {
		return Colour{Name: e.Name, RGB: e.RGB, Measured: true}, nil
	}
	return Sentinel, errs.New(errs.ErrCodeUnknownColour, "no catalog or measured colour for 0x%02x (%d)", code, code)
}

// Interpretations returns a copy of the ordered interpretations for code.
func (r *Resolver) Interpretations(code int32) []Interpretation {
	return slices.Clone(r.interps[code])
}

// Codes returns the internal codes that have at least one interpretation.
func (r *Resolver) Codes() []int32 {
	return slices.Sorted(maps.Keys(r.interps))
}

// MeasuredCodes returns the internal codes covered by the measured table.
func (r *Resolver) MeasuredCodes() []int32 {
	return slices.Sorted(maps.Keys(r.measured))
}
