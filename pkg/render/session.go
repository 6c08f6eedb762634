package render

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jefview/pkg/colours"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/jef"
	"github.com/matzehuels/jefview/pkg/observability"
	"github.com/matzehuels/jefview/pkg/zone"
)

// ThreadInfo describes how one thread is currently drawn.
type ThreadInfo struct {
	Index           int
	Code            int32
	ThreadType      int32
	Colour          colours.Colour
	Interpretation  int
	Interpretations int
	Visible         bool
	Unknown         bool
	Moves           int
	Stitches        int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for colour diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPalette starts the session from a stored palette. A palette that
// does not fit the pattern is ignored with a warning.
func WithPalette(p Palette) Option {
	return func(s *Session) { s.initial = &p }
}

// Session is a pattern prepared for display. It is not safe for
// concurrent use.
type Session struct {
	ctx      context.Context
	pattern  *jef.Pattern
	resolver *colours.Resolver
	logger   *log.Logger
	tree     *zone.Tree
	palette  Palette
	colours  []colours.Colour
	unknown  []bool
	initial  *Palette
}

// NewSession resolves every thread colour and builds the spatial index.
// Unknown colours are logged and drawn with [colours.Sentinel].
func NewSession(ctx context.Context, p *jef.Pattern, r *colours.Resolver, opts ...Option) (*Session, error) {
	if p == nil || r == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "session needs a pattern and a resolver")
	}
	s := &Session{
		ctx:      ctx,
		pattern:  p,
		resolver: r,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		palette:  NewPalette(len(p.Threads)),
		colours:  make([]colours.Colour, len(p.Threads)),
		unknown:  make([]bool, len(p.Threads)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.initial != nil {
		if err := s.ApplyPalette(*s.initial); err != nil {
			s.logger.Warn("ignoring stored palette", "err", err)
			s.palette = NewPalette(len(p.Threads))
		}
		s.initial = nil
	}
	for i := range p.Threads {
		if err := s.resolve(i); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	s.tree = zone.Build(p.Threads, s.Colour)
	observability.Pipeline().OnIndexComplete(ctx, s.tree.Len(), s.tree.Depth(), time.Since(start))
	s.logger.Debug("indexed segments", "segments", s.tree.Len(), "depth", s.tree.Depth())
	return s, nil
}

// resolve refreshes the cached colour of thread i from its palette choice.
func (s *Session) resolve(i int) error {
	code := s.pattern.Threads[i].ColourCode
	c, err := s.resolver.Resolve(code, s.palette.Choices[i])
	switch {
	case err == nil:
		s.colours[i], s.unknown[i] = c, false
	case errs.Is(err, errs.ErrCodeUnknownColour):
		s.colours[i], s.unknown[i] = colours.Sentinel, true
		s.logger.Warn("unknown colour", "thread", i, "code", code, "hex", fmt.Sprintf("0x%02x", code))
		observability.Pipeline().OnUnknownColour(s.ctx, i, code)
	default:
		return err
	}
	return nil
}

// Pattern returns the underlying pattern.
func (s *Session) Pattern() *jef.Pattern { return s.pattern }

// Resolver returns the colour resolver the session was built with.
func (s *Session) Resolver() *colours.Resolver { return s.resolver }

// Tree returns the spatial index.
func (s *Session) Tree() *zone.Tree { return s.tree }

// Bounds returns the screen-space box of the whole design.
func (s *Session) Bounds() zone.Rect { return s.tree.Bounds() }

// Colour returns the current colour of thread i and whether it is drawn.
// It is the tree's paint-time colour lookup.
func (s *Session) Colour(i int) (colours.Colour, bool) {
	if i < 0 || i >= len(s.colours) {
		return colours.Sentinel, false
	}
	return s.colours[i], s.palette.Visible[i]
}

// Palette returns a copy of the current palette.
func (s *Session) Palette() Palette {
	return s.palette.Clone()
}

// ApplyPalette replaces every choice at once. On error nothing changes.
func (s *Session) ApplyPalette(p Palette) error {
	if err := p.validate(len(s.pattern.Threads)); err != nil {
		return err
	}
	for i, choice := range p.Choices {
		if err := s.checkInterpretation(i, choice); err != nil {
			return err
		}
	}
	s.palette = p.Clone()
	if s.tree == nil {
		return nil
	}
	for i := range s.pattern.Threads {
		if err := s.resolve(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) checkThread(i int) error {
	if i < 0 || i >= len(s.pattern.Threads) {
		return errs.New(errs.ErrCodeInvalidInput, "thread %d out of range [0, %d)", i, len(s.pattern.Threads))
	}
	return nil
}

func (s *Session) checkInterpretation(i, choice int) error {
	if err := s.checkThread(i); err != nil {
		return err
	}
	n := max(len(s.resolver.Interpretations(s.pattern.Threads[i].ColourCode)), 1)
	if choice < 0 || choice >= n {
		return errs.New(errs.ErrCodeInvalidInput,
			"thread %d has %d colour interpretations, %d requested", i, n, choice)
	}
	return nil
}

// SetInterpretation selects which catalog reading thread i is drawn with.
func (s *Session) SetInterpretation(i, choice int) error {
	if err := s.checkInterpretation(i, choice); err != nil {
		return err
	}
	s.palette.Choices[i] = choice
	return s.resolve(i)
}

// SetVisible shows or hides thread i.
func (s *Session) SetVisible(i int, visible bool) error {
	if err := s.checkThread(i); err != nil {
		return err
	}
	s.palette.Visible[i] = visible
	return nil
}

// SetColour patches thread i's colour code in the pattern and resets its
// interpretation to the first one. Call Pattern().Save to persist it.
func (s *Session) SetColour(i int, code int32) error {
	if err := s.pattern.SetColour(i, code); err != nil {
		return err
	}
	s.palette.Choices[i] = 0
	return s.resolve(i)
}

// Paint emits the visible segments of every zone meeting viewport.
func (s *Session) Paint(viewport zone.Rect, emit func(colours.Colour, zone.Segment)) {
	s.tree.PaintWithin(viewport, emit)
}

// Unresolved returns the indices of threads drawn with the sentinel colour.
func (s *Session) Unresolved() []int {
	var out []int
	for i, u := range s.unknown {
		if u {
			out = append(out, i)
		}
	}
	return out
}

// Threads describes every thread in pattern order.
func (s *Session) Threads() []ThreadInfo {
	out := make([]ThreadInfo, len(s.pattern.Threads))
	for i, th := range s.pattern.Threads {
		moves, stitches := th.Counts()
		out[i] = ThreadInfo{
			Index:           i,
			Code:            th.ColourCode,
			ThreadType:      th.ThreadTypeCode,
			Colour:          s.colours[i],
			Interpretation:  s.palette.Choices[i],
			Interpretations: len(s.resolver.Interpretations(th.ColourCode)),
			Visible:         s.palette.Visible[i],
			Unknown:         s.unknown[i],
			Moves:           moves,
			Stitches:        stitches,
		}
	}
	return out
}
