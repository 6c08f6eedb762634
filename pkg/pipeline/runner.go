package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jefview/pkg/cache"
	"github.com/matzehuels/jefview/pkg/colours"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/jef"
	"github.com/matzehuels/jefview/pkg/observability"
	"github.com/matzehuels/jefview/pkg/render"
)

const keyTypeArtifact = "artifact"

// PaletteLookup returns the saved palette for a pattern hash, or nil.
type PaletteLookup func(ctx context.Context, patternHash string) (*render.Palette, error)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, resolver and logger. It
// doesn't store pipeline results, so multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Resolver *colours.Resolver
	Logger   *log.Logger

	// TTL is the artifact lifetime. Zero means cache.TTLArtifact.
	TTL time.Duration

	// Palettes supplies saved palettes to Execute when Options.Palette
	// is nil. Lookup failures are logged and the default palette is used.
	Palettes PaletteLookup
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If resolver is nil, the embedded catalogs are used.
func NewRunner(c cache.Cache, keyer cache.Keyer, resolver *colours.Resolver, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Resolver: resolver,
		Logger:   logger,
	}
}

// Execute runs decode → index → render for the file at path.
func (r *Runner) Execute(ctx context.Context, path string, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Decode
	start := time.Now()
	p, err := r.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	result.Pattern = p
	result.PatternHash = cache.Hash(p.Bytes())
	result.Stats.DecodeTime = time.Since(start)
	result.Stats.Threads = len(p.Threads)

	if opts.Palette == nil && r.Palettes != nil {
		saved, err := r.Palettes(ctx, result.PatternHash)
		if err != nil {
			r.Logger.Warn("palette lookup failed", "hash", result.PatternHash, "err", err)
		}
		opts.Palette = saved
	}

	// Stage 2: Index
	start = time.Now()
	s, err := r.NewSession(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	result.Session = s
	result.Stats.IndexTime = time.Since(start)
	result.Stats.Segments = s.Tree().Len()
	result.Stats.Depth = s.Tree().Depth()

	r.Logger.Info("indexed pattern",
		"threads", result.Stats.Threads,
		"segments", result.Stats.Segments,
		"depth", result.Stats.Depth,
		"duration", result.Stats.DecodeTime+result.Stats.IndexTime)

	// Stage 3: Render
	start = time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads and decodes a pattern file.
func (r *Runner) Load(ctx context.Context, path string) (*jef.Pattern, error) {
	hooks := observability.Pipeline()
	hooks.OnDecodeStart(ctx, path)
	start := time.Now()

	p, err := jef.ReadFile(path)

	threads := 0
	if p != nil {
		threads = len(p.Threads)
	}
	hooks.OnDecodeComplete(ctx, path, threads, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("decoded pattern", "path", path, "threads", threads, "hoop", p.Hoop)
	return p, nil
}

// NewSession resolves colours and builds the zone tree for p.
func (r *Runner) NewSession(ctx context.Context, p *jef.Pattern, opts Options) (*render.Session, error) {
	resolver, err := r.resolver()
	if err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	sessionOpts := []render.Option{render.WithLogger(opts.Logger)}
	if opts.Palette != nil {
		sessionOpts = append(sessionOpts, render.WithPalette(*opts.Palette))
	}
	return render.NewSession(ctx, p, resolver, sessionOpts...)
}

// CatalogFingerprint identifies the catalogs sessions are resolved against.
// It belongs in every cache key whose value depends on resolved colours.
func (r *Runner) CatalogFingerprint() (string, error) {
	resolver, err := r.resolver()
	if err != nil {
		return "", err
	}
	return resolver.Fingerprint(), nil
}

func (r *Runner) resolver() (*colours.Resolver, error) {
	if r.Resolver != nil {
		return r.Resolver, nil
	}
	resolver, err := colours.Default()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "load embedded catalogs")
	}
	return resolver, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns whether
// every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *render.Session, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	if opts.NoCache {
		artifacts, err := Render(ctx, s, opts)
		return artifacts, false, err
	}

	patternHash := cache.Hash(s.Pattern().Bytes())
	fingerprint := s.Palette().Fingerprint()
	catalog := s.Resolver().Fingerprint()
	keys := make(map[string]string, len(opts.Formats))
	for _, format := range opts.Formats {
		keyOpts := opts.ArtifactKeyOpts(format, fingerprint)
		keyOpts.Catalog = catalog
		keys[format] = r.Keyer.ArtifactKey(patternHash, keyOpts)
	}

	// Try to get all formats from cache
	hooks := observability.Cache()
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, keys[format])
		if err != nil {
			r.Logger.Warn("cache read failed", "format", format, "err", err)
		}
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, keyTypeArtifact)
			break
		}
		hooks.OnCacheHit(ctx, keyTypeArtifact)
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, s, opts)
	if err != nil {
		return nil, false, err
	}

	ttl := r.TTL
	if ttl == 0 {
		ttl = cache.TTLArtifact
	}
	for format, data := range rendered {
		if err := r.Cache.Set(ctx, keys[format], data, ttl); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
			continue
		}
		hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
