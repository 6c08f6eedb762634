package pipeline

import (
	"context"
	"time"

	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/observability"
	"github.com/matzehuels/jefview/pkg/render/sink"
)

type renderFunc func(sink.Scene, ...sink.Option) ([]byte, error)

var renderers = map[string]renderFunc{
	FormatSVG:  sink.RenderSVG,
	FormatPNG:  sink.RenderPNG,
	FormatJSON: sink.RenderJSON,
}

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, s sink.Scene, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	sinkOpts := opts.SinkOptions()

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hooks.OnRenderStart(ctx, format)
		start := time.Now()
		data, err := renderers[format](s, sinkOpts...)
		hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			code := errs.GetCode(err)
			if code == "" {
				code = errs.ErrCodeInternal
			}
			return nil, errs.Wrap(code, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
