package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jefview/pkg/colours"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/jef"
	"github.com/matzehuels/jefview/pkg/jef/jeftest"
	"github.com/matzehuels/jefview/pkg/zone"
)

var (
	red     = colours.RGB{R: 220}
	scarlet = colours.RGB{R: 255, G: 36}
	navy    = colours.RGB{B: 80}
)

func testResolver() *colours.Resolver {
	return colours.NewResolver(
		[]colours.Catalog{
			{ThreadType: "Poly", Entries: map[int]colours.Entry{10: {Name: "Red", RGB: red}, 30: {Name: "Navy", RGB: navy}}},
			{ThreadType: "Rayon", Entries: map[int]colours.Entry{7: {Name: "Scarlet", RGB: scarlet}}},
		},
		colours.CrossRef{
			Order: []string{"Poly", "Rayon"},
			Pairs: map[string][]colours.Pair{
				"Poly":  {{Internal: 0x0a, Code: 10}, {Internal: 0x1e, Code: 30}},
				"Rayon": {{Internal: 0x0a, Code: 7}},
			},
		},
		nil,
	)
}

func testPattern(t *testing.T) *jef.Pattern {
	t.Helper()
	p, err := jef.Decode(jeftest.Build(0,
		jeftest.Square(0x0a, 0, 0, 300),
		jeftest.Square(0x55, 500, 0, 300),
		jeftest.Square(0x1e, 0, 500, 300),
	))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return p
}

func paintCounts(s *Session) map[colours.RGB]int {
	got := map[colours.RGB]int{}
	s.Paint(s.Bounds(), func(c colours.Colour, _ zone.Segment) { got[c.RGB]++ })
	return got
}

func TestNewSessionResolvesColours(t *testing.T) {
	var logs bytes.Buffer
	s, err := NewSession(context.Background(), testPattern(t), testResolver(),
		WithLogger(log.NewWithOptions(&logs, log.Options{Level: log.WarnLevel})))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	threads := s.Threads()
	if threads[0].Colour.Name != "Red" || threads[0].Interpretations != 2 {
		t.Errorf("thread 0 = %+v", threads[0])
	}
	if !threads[1].Unknown || threads[1].Colour != colours.Sentinel {
		t.Errorf("thread 1 = %+v, want sentinel", threads[1])
	}
	if got := s.Unresolved(); len(got) != 1 || got[0] != 1 {
		t.Errorf("Unresolved() = %v, want [1]", got)
	}
	if out := logs.String(); !strings.Contains(out, "unknown colour") || !strings.Contains(out, "0x55") || !strings.Contains(out, "85") {
		t.Errorf("warning should name the code in hex and decimal, got %q", out)
	}

	counts := paintCounts(s)
	if counts[red] != 12 || counts[navy] != 12 || counts[colours.Sentinel.RGB] != 12 {
		t.Errorf("paint counts = %v", counts)
	}
}

func TestSessionPaletteEdits(t *testing.T) {
	s, err := NewSession(context.Background(), testPattern(t), testResolver())
	if err != nil {
		t.Fatal(err)
	}
	tree := s.Tree()

	if err := s.SetInterpretation(0, 1); err != nil {
		t.Fatalf("SetInterpretation: %v", err)
	}
	if c, _ := s.Colour(0); c.Name != "Scarlet" || c.ThreadType != "Rayon" {
		t.Errorf("thread 0 = %+v, want Rayon Scarlet", c)
	}
	if counts := paintCounts(s); counts[scarlet] != 12 || counts[red] != 0 {
		t.Errorf("after switching interpretation: %v", counts)
	}

	if err := s.SetVisible(2, false); err != nil {
		t.Fatal(err)
	}
	if counts := paintCounts(s); counts[navy] != 0 {
		t.Errorf("hidden thread painted: %v", counts)
	}
	if s.Tree() != tree {
		t.Error("palette edits rebuilt the tree")
	}

	p := s.Palette()
	if p.IsDefault() || p.Fingerprint() == "" {
		t.Errorf("edited palette reads as default: %+v", p)
	}
	if NewPalette(3).Fingerprint() != "" {
		t.Error("default palette should have an empty fingerprint")
	}
}

func TestSessionRejectsBadEdits(t *testing.T) {
	s, err := NewSession(context.Background(), testPattern(t), testResolver())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
	}{
		{"interpretation out of range", s.SetInterpretation(0, 2)},
		{"negative interpretation", s.SetInterpretation(0, -1)},
		{"second reading of unknown colour", s.SetInterpretation(1, 1)},
		{"thread out of range", s.SetVisible(3, false)},
		{"recolour out of range", s.SetColour(-1, 0x0a)},
		{"short palette", s.ApplyPalette(NewPalette(2))},
	}
	for _, tt := range tests {
		if !errs.Is(tt.err, errs.ErrCodeInvalidInput) {
			t.Errorf("%s: error = %v, want INVALID_INPUT", tt.name, tt.err)
		}
	}
	if !s.Palette().IsDefault() {
		t.Errorf("failed edits changed the palette: %+v", s.Palette())
	}
}

func TestSessionSetColour(t *testing.T) {
	p := testPattern(t)
	before := p.Bytes()
	s, err := NewSession(context.Background(), p, testResolver())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SetColour(1, 0x1e); err != nil {
		t.Fatalf("SetColour: %v", err)
	}
	if len(s.Unresolved()) != 0 {
		t.Errorf("Unresolved() = %v after recolouring", s.Unresolved())
	}
	if c, _ := s.Colour(1); c.Name != "Navy" {
		t.Errorf("thread 1 = %+v, want Navy", c)
	}
	after := p.Bytes()
	diff := 0
	for i := range before {
		if before[i] != after[i] {
			diff++
		}
	}
	if diff != 1 {
		t.Errorf("%d bytes changed, want only the colour code byte", diff)
	}
}

func TestWithPalette(t *testing.T) {
	good := NewPalette(3)
	good.Choices[0] = 1
	good.Visible[1] = false

	s, err := NewSession(context.Background(), testPattern(t), testResolver(), WithPalette(good))
	if err != nil {
		t.Fatal(err)
	}
	if c, visible := s.Colour(0); c.Name != "Scarlet" || !visible {
		t.Errorf("thread 0 = %+v visible %v", c, visible)
	}
	if _, visible := s.Colour(1); visible {
		t.Error("thread 1 should be hidden")
	}

	bad := NewPalette(3)
	bad.Choices[2] = 5
	s, err = NewSession(context.Background(), testPattern(t), testResolver(), WithPalette(bad))
	if err != nil {
		t.Fatal(err)
	}
	if !s.Palette().IsDefault() {
		t.Errorf("invalid stored palette was applied: %+v", s.Palette())
	}
}

func TestNewSessionNeedsInputs(t *testing.T) {
	if _, err := NewSession(context.Background(), nil, testResolver()); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("nil pattern: %v", err)
	}
}
