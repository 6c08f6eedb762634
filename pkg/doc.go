// Package pkg provides the libraries behind jefview, a viewer and exporter
// for Janome JEF embroidery files.
//
// # Overview
//
//  1. [jef] - Decoding JEF files and patching thread colours in place
//  2. [colours] - Resolving internal colour codes against thread catalogs
//  3. [zone] - The quadtree of stitch segments used for viewport culling
//  4. [render] - Sessions (pattern, palette, tree) and the SVG/PNG/JSON sinks
//  5. [pipeline] - Orchestration (decode → index → render) with caching
//  6. [cache], [store] - Artifact cache and saved palettes
//
// # Architecture
//
//	JEF file
//	   ↓
//	[jef] package (header, colour table, stitch stream)
//	   ↓
//	[colours] package (catalog interpretations, measured fallback)
//	   ↓
//	[zone] package (screen-space segments in a quadtree)
//	   ↓
//	[render/sink] package (SVG, PNG, JSON)
//
// # Quick Start
//
//	p, err := jef.ReadFile("rose.jef")
//	if err != nil {
//	    return err
//	}
//	resolver, _ := colours.Default()
//	s, err := render.NewSession(ctx, p, resolver)
//	if err != nil {
//	    return err
//	}
//	svg, err := sink.RenderSVG(s, sink.WithSize(1024, 768))
package pkg
