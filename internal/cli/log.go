// Package cli implements the jefview command-line interface.
//
// The commands decode JEF files, report and edit their thread colours,
// render them to SVG, PNG or JSON and serve previews over HTTP. The CLI is
// built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - info: Header, hoop and per-thread stitch counts
//   - colours: How each thread colour resolves, with unknown codes marked
//   - catalog: Catalog interpretations of internal colour codes
//   - recolour: Patch a thread colour and save the file
//   - palette: Store per-thread display choices
//   - render: Export SVG, PNG or JSON
//   - serve: HTTP preview server
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// registers observability hooks that log decode, index, render and cache
// events. Loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jefview/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Rendered rose.jef (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Logging Hooks
// =============================================================================

// logHooks writes pipeline and cache events to a logger at debug level.
type logHooks struct {
	logger *log.Logger
}

// EnableHookLogging registers logHooks for pipeline and cache events.
func EnableHookLogging(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
}

func (h *logHooks) OnDecodeStart(_ context.Context, source string) {
	h.logger.Debug("decode", "source", source)
}

func (h *logHooks) OnDecodeComplete(_ context.Context, source string, threads int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("decode failed", "source", source, "err", err)
		return
	}
	h.logger.Debug("decoded", "source", source, "threads", threads, "took", d.Round(time.Microsecond))
}

func (h *logHooks) OnIndexComplete(_ context.Context, segments, depth int, d time.Duration) {
	h.logger.Debug("indexed", "segments", segments, "depth", depth, "took", d.Round(time.Microsecond))
}

func (h *logHooks) OnUnknownColour(_ context.Context, thread int, code int32) {
	h.logger.Debug("sentinel colour", "thread", thread, "code", code)
}

func (h *logHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render", "format", format)
}

func (h *logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "format", format, "err", err)
		return
	}
	h.logger.Debug("rendered", "format", format, "bytes", size, "took", d.Round(time.Microsecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
