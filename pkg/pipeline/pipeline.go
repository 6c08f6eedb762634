// Package pipeline provides the decode → index → render pipeline shared by
// the CLI and the preview server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: read a JEF file into a [jef.Pattern]
//  2. Index: resolve thread colours and build the zone tree ([render.Session])
//  3. Render: produce SVG, PNG or JSON through [sink]
//
// Rendered artifacts are cached by pattern content, render options and
// palette, so repeated renders of an unchanged file skip stage 3.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, resolver, logger)
//	result, err := runner.Execute(ctx, "rose.jef", pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jefview/pkg/cache"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/jef"
	"github.com/matzehuels/jefview/pkg/render"
	"github.com/matzehuels/jefview/pkg/render/sink"
	"github.com/matzehuels/jefview/pkg/zone"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default output width in pixels.
	DefaultWidth = sink.DefaultWidth

	// DefaultHeight is the default output height in pixels.
	DefaultHeight = sink.DefaultHeight

	// DefaultBackground is the default background colour.
	DefaultBackground = sink.DefaultBackground

	// MaxDimension bounds the requested output size.
	MaxDimension = 8192
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// ContentTypes maps each format to its MIME type.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatJSON: "application/json",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	Formats    []string        `json:"formats,omitempty"`
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	Background string          `json:"background,omitempty"`
	Points     bool            `json:"points,omitempty"`
	Viewport   *zone.Rect      `json:"viewport,omitempty"`
	Palette    *render.Palette `json:"palette,omitempty"`
	NoCache    bool            `json:"no_cache,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Pattern is the decoded file.
	Pattern *jef.Pattern

	// Session holds the resolved colours and the zone tree.
	Session *render.Session

	// PatternHash is the content hash of the file bytes.
	PatternHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Threads    int
	Segments   int
	Depth      int
	DecodeTime time.Duration
	IndexTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out, ValidateFormats(out)
}

// ParseViewport parses "x,y,w,h" in screen units.
func ParseViewport(s string) (zone.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return zone.Rect{}, errs.New(errs.ErrCodeInvalidInput, "viewport %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return zone.Rect{}, errs.New(errs.ErrCodeInvalidInput, "viewport %q: %q is not an integer", s, p)
		}
		v[i] = n
	}
	return NewViewport(v[0], v[1], v[2], v[3])
}

// NewViewport checks the size and returns the rectangle.
func NewViewport(x, y, w, h int) (zone.Rect, error) {
	if w <= 0 || h <= 0 {
		return zone.Rect{}, errs.New(errs.ErrCodeInvalidInput, "viewport size %dx%d must be positive", w, h)
	}
	return zone.XYWH(x, y, w, h), nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetRenderDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender checks the render fields.
func (o *Options) ValidateForRender() error {
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 || o.Width > MaxDimension || o.Height > MaxDimension {
		return errs.New(errs.ErrCodeInvalidInput, "size %dx%d outside 0..%d", o.Width, o.Height, MaxDimension)
	}
	if _, err := sink.ParseBackground(o.Background); err != nil {
		return err
	}
	if o.Viewport != nil && o.Viewport.Empty() {
		return errs.New(errs.ErrCodeInvalidInput, "viewport is empty")
	}
	return nil
}

// SinkOptions converts the options for the sink package.
func (o *Options) SinkOptions() []sink.Option {
	opts := []sink.Option{sink.WithSize(o.Width, o.Height), sink.WithBackground(o.Background)}
	if o.Viewport != nil {
		opts = append(opts, sink.WithViewport(*o.Viewport))
	}
	if o.Points {
		opts = append(opts, sink.WithPoints())
	}
	return opts
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format, paletteFingerprint string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Width:      o.Width,
		Height:     o.Height,
		Background: strings.ToLower(o.Background),
		Points:     o.Points,
		Palette:    paletteFingerprint,
	}
	if v := o.Viewport; v != nil {
		k.Viewport = strconv.Itoa(v.Min.X) + "," + strconv.Itoa(v.Min.Y) + "," +
			strconv.Itoa(v.Dx()+1) + "," + strconv.Itoa(v.Dy()+1)
	}
	return k
}
