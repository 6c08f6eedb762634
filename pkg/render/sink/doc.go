// Package sink turns a painted scene into SVG, PNG or JSON bytes.
//
// A [Scene] is anything that can report its bounds and paint coloured
// segments within a viewport; [render.Session] is the usual one. All sinks
// share the same [Option] set:
//
//	svg, err := sink.RenderSVG(session, sink.WithSize(1024, 768))
//	png, err := sink.RenderPNG(session, sink.WithBackground("ivory"), sink.WithPoints())
//	data, err := sink.RenderJSON(session, sink.WithViewport(zone.XYWH(0, -500, 500, 500)))
//
// Coordinates are screen space: pattern y is negated.
package sink
