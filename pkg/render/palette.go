package render

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/jefview/pkg/cache"
	errs "github.com/matzehuels/jefview/pkg/errors"
)

// Palette holds the per-thread display choices: which catalog
// interpretation to use and whether the thread is drawn.
type Palette struct {
	Choices []int  `json:"choices"`
	Visible []bool `json:"visible"`
}

// NewPalette returns the default palette for n threads: first
// interpretation, everything visible.
func NewPalette(n int) Palette {
	p := Palette{Choices: make([]int, n), Visible: make([]bool, n)}
	for i := range p.Visible {
		p.Visible[i] = true
	}
	return p
}

// Len returns the number of threads covered.
func (p Palette) Len() int {
	return len(p.Choices)
}

// Clone returns a deep copy.
func (p Palette) Clone() Palette {
	return Palette{Choices: slices.Clone(p.Choices), Visible: slices.Clone(p.Visible)}
}

// IsDefault reports whether the palette matches NewPalette(p.Len()).
func (p Palette) IsDefault() bool {
	for i := range p.Choices {
		if p.Choices[i] != 0 || !p.Visible[i] {
			return false
		}
	}
	return true
}

// Fingerprint identifies the palette in cache keys. The default palette
// has an empty fingerprint.
func (p Palette) Fingerprint() string {
	if p.IsDefault() {
		return ""
	}
	data, _ := json.Marshal(p)
	return cache.Hash(data)[:16]
}

func (p Palette) validate(threads int) error {
	if len(p.Choices) != threads || len(p.Visible) != threads {
		return errs.New(errs.ErrCodeInvalidInput,
			"palette covers %d/%d threads, pattern has %d", len(p.Choices), len(p.Visible), threads)
	}
	return nil
}
