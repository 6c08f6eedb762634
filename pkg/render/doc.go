// Package render ties a decoded pattern to its colours and spatial index.
//
// A [Session] owns one [jef.Pattern], the [colours.Resolver] used to name
// its threads, a [Palette] of per-thread choices and the [zone.Tree] built
// from the stitches. The tree looks colours up through the session while
// painting, so palette edits and SetColour never rebuild it.
//
//	s, err := render.NewSession(ctx, pattern, resolver, render.WithLogger(logger))
//	s.SetInterpretation(2, 1)  // second catalog reading for thread 2
//	s.SetVisible(0, false)
//	s.Paint(s.Bounds(), func(c colours.Colour, seg zone.Segment) { ... })
//
// Output formats live in the [sink] subpackage.
package render
